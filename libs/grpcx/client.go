package grpcx

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// ClientOptions configures NewClient. Nil Credentials means plaintext; TLS is
// terminated by the mesh.
type ClientOptions struct {
	Credentials credentials.TransportCredentials
}

// NewClient returns a lazily connecting client with tracing and request id
// propagation. The first RPC establishes the connection.
func NewClient(addr string, opts ClientOptions, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	creds := opts.Credentials
	if creds == nil {
		creds = insecure.NewCredentials()
	}
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(UnaryClientRequestID()),
	}
	return grpc.NewClient(addr, append(dialOpts, extra...)...)
}
