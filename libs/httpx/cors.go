package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy describes which browser origins may call the API. ExposedHeaders
// lists response headers scripts may read, e.g. Idempotent-Replayed.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type corsRules struct {
	origins     []string
	wildcard    bool
	credentials bool
	methods     string
	headers     string
	exposed     string
	maxAge      string
}

func (p CORSPolicy) compile() corsRules {
	rules := corsRules{
		credentials: p.AllowCredentials,
		methods:     joinTrimmed(p.AllowedMethods),
		headers:     joinTrimmed(p.AllowedHeaders),
		exposed:     joinTrimmed(p.ExposedHeaders),
	}
	for _, o := range p.AllowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			rules.wildcard = true
		default:
			rules.origins = append(rules.origins, o)
		}
	}
	if secs := int(p.MaxAge / time.Second); secs > 0 {
		rules.maxAge = strconv.Itoa(secs)
	}
	return rules
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin.
// A wildcard is echoed back as the origin when credentials are allowed.
func (c corsRules) allowOrigin(origin string) (string, bool) {
	for _, o := range c.origins {
		if strings.EqualFold(o, origin) {
			return origin, true
		}
	}
	if !c.wildcard {
		return "", false
	}
	if c.credentials {
		return origin, true
	}
	return "*", true
}

// WithCORS answers preflights for allowed origins and decorates their
// responses. With no allowed origins it does nothing.
func WithCORS(p CORSPolicy) Middleware {
	rules := p.compile()
	if len(rules.origins) == 0 && !rules.wildcard {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			allowed, ok := rules.allowOrigin(origin)
			if origin == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}
			h.Set("Access-Control-Allow-Origin", allowed)
			if rules.credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
				if rules.exposed != "" {
					h.Set("Access-Control-Expose-Headers", rules.exposed)
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			if rules.methods != "" {
				h.Set("Access-Control-Allow-Methods", rules.methods)
			}
			if rules.headers != "" {
				h.Set("Access-Control-Allow-Headers", rules.headers)
			}
			if rules.maxAge != "" {
				h.Set("Access-Control-Max-Age", rules.maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func joinTrimmed(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, ", ")
}
