package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "less than a minute"},
		{"under a minute", 59 * time.Second, "less than a minute"},
		{"exactly a minute", time.Minute, "1 minute"},
		{"minutes only", 45 * time.Minute, "45 minutes"},
		{"hour and minute", 3661 * time.Second, "1 hour, 1 minute"},
		{"hours and minutes", 2*time.Hour + 30*time.Minute, "2 hours, 30 minutes"},
		{"exact hours", 3 * time.Hour, "3 hours"},
		{"day and hour", 90000 * time.Second, "1 day, 1 hour"},
		{"exact day", 24 * time.Hour, "1 day"},
		{"day skips zero hours", 24*time.Hour + 30*time.Minute, "1 day, 30 minutes"},
		{"two units at most", 2*24*time.Hour + 3*time.Hour + 4*time.Minute, "2 days, 3 hours"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatElapsed(tc.d))
		})
	}
}
