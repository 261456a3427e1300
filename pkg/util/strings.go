package util

import (
	"fmt"
	"strings"
	"time"
)

// JoinNonEmpty joins the non-empty parts with sep.
func JoinNonEmpty(sep string, parts ...string) string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

// HumanDurationLong renders d in full words: "45 seconds",
// "1 minute and 5 seconds", "2 hours 0 minutes and 30 seconds".
func HumanDurationLong(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	neg := secs < 0
	if neg {
		secs = -secs
	}
	days := secs / 86400
	hours := secs % 86400 / 3600
	minutes := secs % 3600 / 60
	seconds := secs % 60

	word := func(n int, singular, plural string) string {
		if n == 1 {
			return fmt.Sprintf("%d %s", n, singular)
		}
		return fmt.Sprintf("%d %s", n, plural)
	}

	var parts []string
	if days > 0 {
		parts = append(parts, word(days, "day", "days"))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, word(hours, "hour", "hours"))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, word(minutes, "minute", "minutes"))
	}
	if seconds > 0 || len(parts) > 0 || secs == 0 {
		parts = append(parts, word(seconds, "second", "seconds"))
	}
	if len(parts) > 1 {
		parts[len(parts)-2] += " and " + parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}
	out := strings.Join(parts, " ")
	if neg {
		out = "-" + out
	}
	return out
}

// HumanDuration renders d in the largest whole unit that fits: "45s",
// "3m", "2h". Sub-second durations round up to one second.
func HumanDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	switch {
	case d < time.Second:
		return "1s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Round(time.Second)/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Round(time.Minute)/time.Minute))
	default:
		return fmt.Sprintf("%dh", int(d.Round(time.Hour)/time.Hour))
	}
}
