package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name   string
		err    *ValidationError
		expect string
	}{
		{name: "name", err: &ValidationError{Field: "name", Reason: "is required"}, expect: "feed source name: is required"},
		{name: "url", err: &ValidationError{Field: "url", Reason: "must use http or https"}, expect: "feed source url: must use http or https"},
		{name: "empty reason", err: &ValidationError{Field: "url"}, expect: "feed source url: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.err.Error())
		})
	}
}

func TestValidationError_Wrapped(t *testing.T) {
	err := fmt.Errorf("feed 2 (%q): %w", "Krebs", &ValidationError{Field: "url", Reason: "is required"})

	assert.ErrorIs(t, err, ErrInvalidSource)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "url", vErr.Field)
	assert.Equal(t, "is required", vErr.Reason)
}
