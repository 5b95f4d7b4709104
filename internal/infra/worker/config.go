package worker

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds the configuration for the feed cache warmer.
type Config struct {
	// Schedule is a five-field cron expression, e.g. "*/25 * * * *".
	Schedule string

	// Timezone is the IANA timezone the schedule is evaluated in.
	// Default: "UTC"
	Timezone string

	// Timeout bounds how long a run waits for its refresh. A refresh still
	// in flight when it elapses completes in the background and is stored.
	// Default: 2 minutes
	Timeout time.Duration

	// RunOnStart refreshes once immediately when Start is called.
	RunOnStart bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Schedule:   "*/25 * * * *",
		Timezone:   "UTC",
		Timeout:    2 * time.Minute,
		RunOnStart: true,
	}
}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks that schedule is a five-field cron expression.
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return errors.New("invalid cron schedule: cannot be empty")
	}
	if _, err := scheduleParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// Validate checks every field and returns all problems joined.
func (c Config) Validate() error {
	var errs []error

	if err := ValidateSchedule(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("schedule: %w", err))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout: must be positive, got %v", c.Timeout))
	}

	return errors.Join(errs...)
}
