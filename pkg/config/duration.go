package config

import (
	"fmt"
	"time"
)

// ValidatePositiveDuration rejects zero and negative durations.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}

// ValidateDurationRange requires lo <= d <= hi.
//
//	if err := ValidateDurationRange(ttl, time.Minute, 24*time.Hour); err != nil {
//	    return fmt.Errorf("FEED_CACHE_TTL: %w", err)
//	}
func ValidateDurationRange(d, lo, hi time.Duration) error {
	switch {
	case lo > hi:
		return fmt.Errorf("invalid range [%v, %v]", lo, hi)
	case d < lo:
		return fmt.Errorf("duration %v is below minimum %v", d, lo)
	case d > hi:
		return fmt.Errorf("duration %v exceeds maximum %v", d, hi)
	}
	return nil
}
