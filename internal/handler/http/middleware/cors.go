package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds the configuration for CORS middleware.
type CORSConfig struct {
	Validator      OriginValidator
	AllowedMethods []string
	AllowedHeaders []string

	// MaxAge is how long browsers may cache a preflight, in seconds.
	MaxAge int

	Logger *slog.Logger
}

// NewCORSConfig returns the dashboard's CORS policy for the given origins.
func NewCORSConfig(origins []string, logger *slog.Logger) CORSConfig {
	if logger == nil {
		logger = slog.Default()
	}
	return CORSConfig{
		Validator:      NewWhitelistValidator(origins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
		Logger:         logger,
	}
}

// CORS returns an HTTP middleware that handles CORS for cross-origin requests.
//
//   - No Origin header: same-origin request, passed through untouched.
//   - Origin not allowed: logged and passed through without CORS headers, so the browser blocks it.
//   - Allowed preflight (OPTIONS): answered with 204 and the allow headers.
//   - Allowed actual request: Access-Control-Allow-Origin is set and the request continues.
//
// With a "*" whitelist the literal "*" is sent back and credentials are not
// allowed. Otherwise the request origin is echoed with Vary: Origin.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(config.AllowedMethods, ", ")
	headers := strings.Join(config.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(config.MaxAge)
	anyOrigin := false
	if w, ok := config.Validator.(interface{ AllowsAny() bool }); ok {
		anyOrigin = w.AllowsAny()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !config.Validator.IsAllowed(origin) {
				if config.Logger != nil {
					config.Logger.Warn("CORS: origin not allowed",
						slog.String("origin", origin),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method))
				}
				next.ServeHTTP(w, r)
				return
			}

			if anyOrigin {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-Trace-Id, Retry-After")
			next.ServeHTTP(w, r)
		})
	}
}
