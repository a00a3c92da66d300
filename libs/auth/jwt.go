// Package auth verifies the bearer tokens issued to tenant staff.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Roles carried in the role claim.
const (
	RoleOwner        = "owner"
	RoleAdmin        = "admin"
	RoleProfessional = "professional"
)

// Claims identify the caller: the tenant it belongs to, its role and, for
// staff accounts, the professional it acts as.
type Claims struct {
	jwt.RegisteredClaims
	TenantID       string `json:"tenant_id"`
	Role           string `json:"role"`
	ProfessionalID string `json:"professional_id,omitempty"`
}

type VerifierConfig struct {
	// HMACSecret enables HS256 tokens.
	HMACSecret string
	// JWKS enables RS256 tokens resolved by kid.
	JWKS     *JWKSClient
	Issuer   string
	Audience string
	Leeway   time.Duration
}

type Verifier struct {
	cfg     VerifierConfig
	methods []string
}

func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	var methods []string
	if cfg.HMACSecret != "" {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if cfg.JWKS != nil {
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}
	if len(methods) == 0 {
		return nil, errors.New("auth: either an HMAC secret or a JWKS client is required")
	}
	return &Verifier{cfg: cfg, methods: methods}, nil
}

// Verify parses and validates token, returning its claims.
func (v *Verifier) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.cfg.Leeway),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, v.keyFunc, opts...)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.TenantID == "" || claims.Role == "" {
		return nil, fmt.Errorf("%w: tenant_id and role are required", ErrInvalidToken)
	}
	if claims.Role == RoleProfessional && claims.ProfessionalID == "" {
		return nil, fmt.Errorf("%w: professional tokens must carry professional_id", ErrInvalidToken)
	}
	return claims, nil
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	switch t.Method.(type) {
	case *jwt.SigningMethodHMAC:
		return []byte(v.cfg.HMACSecret), nil
	case *jwt.SigningMethodRSA:
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid header")
		}
		return v.cfg.JWKS.Get(kid)
	default:
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
}

// SignHS256 issues an HS256 token. Used by tooling and tests; production
// tokens come from the identity provider.
func SignHS256(claims Claims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
