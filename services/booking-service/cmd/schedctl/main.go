// Command schedctl runs operator tasks against the booking database
// (migrations, one-time timestamp repair, calendar imports) and probes the
// service's gRPC health endpoint.
package main

import (
	"os"
	_ "time/tzdata"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
