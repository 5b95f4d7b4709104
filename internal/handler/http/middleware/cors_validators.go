package middleware

import (
	"strings"
)

// OriginValidator decides whether a browser origin may read responses.
type OriginValidator interface {
	IsAllowed(origin string) bool

	// GetAllowedOrigins returns the configured origins for logging.
	GetAllowedOrigins() []string
}

// WhitelistValidator matches origins exactly after lowercasing and trimming a
// trailing slash. The entry "*" allows every origin.
//
//	validator := NewWhitelistValidator([]string{"http://localhost:3000"})
//	validator.IsAllowed("http://localhost:3000/") // true
//	validator.IsAllowed("http://malicious.com")   // false
type WhitelistValidator struct {
	allowedOrigins []string
	wildcard       bool
}

// NewWhitelistValidator creates a WhitelistValidator. Empty entries are dropped.
func NewWhitelistValidator(origins []string) *WhitelistValidator {
	v := &WhitelistValidator{allowedOrigins: make([]string, 0, len(origins))}
	for _, origin := range origins {
		origin = normalizeOrigin(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			v.wildcard = true
		}
		v.allowedOrigins = append(v.allowedOrigins, origin)
	}
	return v
}

// IsAllowed reports whether origin is in the whitelist.
func (v *WhitelistValidator) IsAllowed(origin string) bool {
	origin = normalizeOrigin(origin)
	if origin == "" {
		return false
	}
	if v.wildcard {
		return true
	}
	for _, allowed := range v.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// AllowsAny reports whether the whitelist contains "*".
func (v *WhitelistValidator) AllowsAny() bool {
	return v.wildcard
}

// GetAllowedOrigins returns a copy of the normalized whitelist.
func (v *WhitelistValidator) GetAllowedOrigins() []string {
	out := make([]string, len(v.allowedOrigins))
	copy(out, v.allowedOrigins)
	return out
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}
