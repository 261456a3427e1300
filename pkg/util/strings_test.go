package util

import (
	"testing"
	"time"
)

func TestJoinNonEmpty(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"a", "b", "c"}, "a – b – c"},
		{[]string{"a", "", "c"}, "a – c"},
		{[]string{"", "", ""}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := JoinNonEmpty(" – ", tt.parts...); got != tt.want {
			t.Errorf("JoinNonEmpty(%v) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}

func TestHumanDurationLong(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0 seconds"},
		{time.Second, "1 second"},
		{45 * time.Second, "45 seconds"},
		{65 * time.Second, "1 minute and 5 seconds"},
		{time.Minute, "1 minute and 0 seconds"},
		{2*time.Hour + 30*time.Second, "2 hours 0 minutes and 30 seconds"},
		{25 * time.Hour, "1 day 1 hour 0 minutes and 0 seconds"},
		{-5 * time.Second, "-5 seconds"},
		{2500 * time.Millisecond, "3 seconds"},
	}
	for _, tt := range tests {
		if got := HumanDurationLong(tt.d); got != tt.want {
			t.Errorf("HumanDurationLong(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{500 * time.Millisecond, "1s"},
		{45 * time.Second, "45s"},
		{3 * time.Minute, "3m"},
		{2 * time.Hour, "2h"},
	}
	for _, tt := range tests {
		if got := HumanDuration(tt.d); got != tt.want {
			t.Errorf("HumanDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
