package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig controls which cross-origin browser clients may call the API.
type CORSConfig struct {
	// AllowedOrigins lists the origins allowed to call the API. A "*"
	// entry allows any origin, but only when Environment is
	// "development"; in any other environment it is ignored and origins
	// must be listed explicitly.
	AllowedOrigins []string

	// ExposedHeaders lists response headers the browser may read.
	ExposedHeaders []string

	// MaxAge is the preflight cache lifetime in seconds. Zero means 3600.
	MaxAge int

	// Environment gates wildcard origins.
	Environment string
}

// CORS returns middleware applying the configured cross-origin policy.
// Requests from origins outside the policy receive no Allow-Origin header;
// preflight requests are answered directly with 204.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 3600
	}

	wildcard := false
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			// Any-origin is a development convenience, never a
			// production policy.
			wildcard = cfg.Environment == "development"
			continue
		}
		allowed[origin] = struct{}{}
	}

	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "":
				if _, ok := allowed[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Correlation-ID")
			if exposed != "" {
				w.Header().Set("Access-Control-Expose-Headers", exposed)
			}
			w.Header().Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
