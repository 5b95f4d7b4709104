package timeutil_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatfeed/internal/utils/timeutil"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestParseDate_SupportedFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "RFC822 numeric offset",
			input: "Mon, 11 Mar 2024 14:30:00 +0200",
			want:  time.Date(2024, 3, 11, 12, 30, 0, 0, time.UTC),
		},
		{
			name:  "RFC822 single digit day",
			input: "Tue, 5 Mar 2024 08:00:00 +0000",
			want:  time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC),
		},
		{
			name:  "RFC822 GMT",
			input: "Mon, 11 Mar 2024 14:30:00 GMT",
			want:  time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "RFC822 EST abbreviation",
			input: "Mon, 11 Mar 2024 09:30:00 EST",
			want:  time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "RFC822 PDT abbreviation",
			input: "Mon, 11 Mar 2024 07:30:00 PDT",
			want:  time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "RFC822 without zone",
			input: "Mon, 11 Mar 2024 14:30:00",
			want:  time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "ISO8601 with colon offset",
			input: "2024-03-11T16:30:00+02:00",
			want:  time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "ISO8601 with fractional seconds",
			input: "2024-03-11T14:30:00.250Z",
			want:  time.Date(2024, 3, 11, 14, 30, 0, 250_000_000, time.UTC),
		},
		{
			name:  "ISO8601 with compact offset",
			input: "2024-03-11T09:30:00-0500",
			want:  time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "ISO8601 Z suffix",
			input: "2024-03-11T14:30:00Z",
			want:  time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "ISO8601 naive",
			input: "2024-03-11T14:30:00",
			want:  time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "space separated",
			input: "2024-03-11 14:30:00",
			want:  time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "bare date",
			input: "2024-03-11",
			want:  time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "surrounding whitespace",
			input: "  2024-03-11T14:30:00Z\n",
			want:  time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timeutil.ParseDate(tt.input, fixedNow)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseDate_FallsBackToNow(t *testing.T) {
	for _, input := range []string{"", "   ", "yesterday", "11/03/2024", "Mon, 32 Mar 2024 00:00:00 +0000"} {
		t.Run(input, func(t *testing.T) {
			got := timeutil.ParseDate(input, fixedNow.In(time.FixedZone("JST", 9*3600)))
			assert.True(t, fixedNow.Equal(got))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParse_ReportsError(t *testing.T) {
	_, err := timeutil.Parse("not a date")
	require.Error(t, err)

	_, err = timeutil.Parse("")
	require.Error(t, err)
}

func TestTimeAgo(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want string
	}{
		{name: "seconds", age: 30 * time.Second, want: "Just now"},
		{name: "zero", age: 0, want: "Just now"},
		{name: "future", age: -time.Hour, want: "Just now"},
		{name: "minutes", age: 5*time.Minute + 10*time.Second, want: "5m ago"},
		{name: "one hour", age: time.Hour, want: "1h ago"},
		{name: "hours", age: 23*time.Hour + 59*time.Minute, want: "23h ago"},
		{name: "one day", age: 24 * time.Hour, want: "1d ago"},
		{name: "days win over hours", age: 3*24*time.Hour + 5*time.Hour, want: "3d ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timeutil.TimeAgo(fixedNow.Add(-tt.age), fixedNow))
		})
	}
}

func TestFormat(t *testing.T) {
	ts := time.Date(2024, 3, 11, 16, 30, 0, 123456000, time.FixedZone("CEST", 2*3600))
	assert.Equal(t, "2024-03-11T14:30:00.123456", timeutil.Format(ts))
	assert.Equal(t, "2024-03-11T14:30:00", timeutil.Format(time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC)))
}
