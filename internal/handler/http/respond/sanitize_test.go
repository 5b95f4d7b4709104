package respond

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeError(t *testing.T) {
	tests := []struct {
		name  string
		input error
		want  string
	}{
		{
			name:  "Anthropic API key",
			input: errors.New("API error: sk-ant-REDACTED"),
			want:  "API error: sk-ant-****",
		},
		{
			name:  "OpenAI API key",
			input: errors.New("API error: sk-1234567890abcdefghijklmnopqrstuvwxyz"),
			want:  "API error: sk-****",
		},
		{
			name:  "OpenAI project key",
			input: errors.New("API error: sk-proj-AbCdEf1234567890_xyz"),
			want:  "API error: sk-****",
		},
		{
			name:  "Google API key",
			input: errors.New("googleapi: Error 400: API key AIzaSyA1234567890abcdefghijklmnopq not valid"),
			want:  "googleapi: Error 400: API key AIza**** not valid",
		},
		{
			name:  "key query parameter",
			input: errors.New(`Post "https://generativelanguage.googleapis.com/v1beta/models?key=secret123": EOF`),
			want:  `Post "https://generativelanguage.googleapis.com/v1beta/models?key=****": EOF`,
		},
		{
			name:  "bearer token",
			input: errors.New("request failed: Authorization: Bearer abc.def-ghi"),
			want:  "request failed: Authorization: Bearer ****",
		},
		{
			name:  "multiple keys",
			input: errors.New("Error with sk-ant-api03abcdef123456 and sk-1234567890abcdefgh"),
			want:  "Error with sk-ant-**** and sk-****",
		},
		{
			name:  "no sensitive info",
			input: errors.New("normal error message"),
			want:  "normal error message",
		},
		{
			name:  "nil error",
			input: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeError(tt.input))
		})
	}
}
