// Package config reads settings from the environment.
//
// Every getter returns its default when the variable is unset or empty. A value
// that does not parse is logged at warn level and the default is used, so a
// typo never stops the process from starting.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// lookup returns parse(value) for key, or def when key is unset, empty or
// unparseable.
func lookup[T any](key string, def T, kind string, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}

	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		slog.Warn("invalid "+kind+" value for environment variable, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Any("default", def),
			slog.String("error", err.Error()))
		return def
	}
	return v
}

// GetEnvString returns the raw value of key, or def when it is unset or empty.
//
//	addr := GetEnvString("PORT", "5001")
func GetEnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetEnvInt parses key as a base-10 integer.
func GetEnvInt(key string, def int) int {
	return lookup(key, def, "integer", strconv.Atoi)
}

// GetEnvFloat parses key as a float64.
//
//	rps := GetEnvFloat("AI_RATE_LIMIT_RPS", 0.2)
func GetEnvFloat(key string, def float64) float64 {
	return lookup(key, def, "float", func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// GetEnvBool parses key with strconv.ParseBool.
func GetEnvBool(key string, def bool) bool {
	return lookup(key, def, "boolean", strconv.ParseBool)
}

// GetEnvDuration parses key with time.ParseDuration ("30s", "1h30m").
func GetEnvDuration(key string, def time.Duration) time.Duration {
	return lookup(key, def, "duration", time.ParseDuration)
}

// GetEnvStringList splits key on commas, trimming each item and dropping empty
// ones. A value with no items left returns def.
//
//	// CORS_ALLOWED_ORIGINS="https://a.test, https://b.test"
//	origins := GetEnvStringList("CORS_ALLOWED_ORIGINS", []string{"*"})
func GetEnvStringList(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
