// Package common provides shared constants, types, and utilities
// used across the WireGuard Manager application.
package common

import (
	"fmt"
	"time"
)

const (
	kib = 1 << 10
	mib = 1 << 20
	gib = 1 << 30
	tib = 1 << 40
)

// FormatBytes renders a byte count in binary (1024-based) units with one
// decimal place below 1 GiB and two above.
func FormatBytes(n uint64) string {
	switch {
	case n < kib:
		return fmt.Sprintf("%d B", n)
	case n < mib:
		return fmt.Sprintf("%.1f KB", float64(n)/kib)
	case n < gib:
		return fmt.Sprintf("%.1f MB", float64(n)/mib)
	case n < tib:
		return fmt.Sprintf("%.2f GB", float64(n)/gib)
	default:
		return fmt.Sprintf("%.2f TB", float64(n)/tib)
	}
}

// FormatHandshake renders the age of the last handshake relative to now as
// a coarse duration. A zero time means the peer never completed a handshake.
func FormatHandshake(last, now time.Time) string {
	if last.IsZero() {
		return "Never"
	}

	age := now.Sub(last)
	switch {
	case age < 10*time.Second:
		return "just now"
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
