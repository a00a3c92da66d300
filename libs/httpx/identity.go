package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/ybieul/saas-barbearia/libs/auth"
)

// Identity is the authenticated caller as seen by handlers.
type Identity struct {
	UserID         string
	TenantID       string
	Role           string
	ProfessionalID string
}

// CanManageProfessional reports whether the caller may edit data owned by
// professionalID. Owners and admins manage the whole tenant; professionals
// only themselves.
func (id Identity) CanManageProfessional(professionalID string) bool {
	switch id.Role {
	case auth.RoleOwner, auth.RoleAdmin:
		return true
	case auth.RoleProfessional:
		return id.ProfessionalID != "" && id.ProfessionalID == professionalID
	default:
		return false
	}
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(Identity)
	return id, ok
}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// TokenVerifier is satisfied by *auth.Verifier.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's Identity in the request context.
func RequireAuth(verifier TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				WriteError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			AddLogFields(r.Context(), "tenant_id", claims.TenantID, "role", claims.Role)
			ctx := ContextWithIdentity(r.Context(), Identity{
				UserID:         claims.Subject,
				TenantID:       claims.TenantID,
				Role:           claims.Role,
				ProfessionalID: claims.ProfessionalID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole admits only the listed roles. It must run after RequireAuth.
func RequireRole(roles ...string) Middleware {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			if _, ok := allowed[id.Role]; !ok {
				WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
