package model

import (
	"fmt"
	"strings"
)

// Granularity controls how discussion creation times are compared against
// the lookback window.
type Granularity string

const (
	GranularityDay     Granularity = "day"     // Compare UTC calendar dates.
	GranularityInstant Granularity = "instant" // Compare exact instants.
)

// ParseGranularity converts a configuration value into a Granularity.
// The empty string maps to GranularityDay.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case "", GranularityDay:
		return GranularityDay, nil
	case GranularityInstant:
		return GranularityInstant, nil
	default:
		return "", fmt.Errorf("unknown date granularity %q (want %q or %q)", s, GranularityDay, GranularityInstant)
	}
}
