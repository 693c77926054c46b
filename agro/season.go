package agro

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SEASON - "YY/YY" agricultural season labels
// =============================================================================

// Season is a parsed season label. "23/24" spans two calendar years
// (summer crops); "23/23" sits inside one (winter crops).
type Season struct {
	Label     string
	FirstYear int // 2000 + first component
	LastYear  int // 2000 + second component
}

// ParseSeason parses labels of the form "YY/YY". Anything else returns
// ErrMalformedSeason; there is no fallback year.
func ParseSeason(label string) (Season, error) {
	parts := strings.Split(strings.TrimSpace(label), "/")
	if len(parts) != 2 {
		return Season{}, fmt.Errorf("%w: %q", ErrMalformedSeason, label)
	}
	first, err := parseSeasonYear(parts[0])
	if err != nil {
		return Season{}, fmt.Errorf("%w: %q", ErrMalformedSeason, label)
	}
	last, err := parseSeasonYear(parts[1])
	if err != nil {
		return Season{}, fmt.Errorf("%w: %q", ErrMalformedSeason, label)
	}
	if last < first {
		return Season{}, fmt.Errorf("%w: %q ends before it starts", ErrMalformedSeason, label)
	}
	return Season{Label: label, FirstYear: 2000 + first, LastYear: 2000 + last}, nil
}

func parseSeasonYear(s string) (int, error) {
	if len(s) == 0 || len(s) > 2 {
		return 0, ErrMalformedSeason
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrMalformedSeason
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrMalformedSeason
	}
	return n, nil
}

// SameYear reports whether both halves of the label are equal.
func (s Season) SameYear() bool { return s.FirstYear == s.LastYear }

// Summer is the policy classification used by the allocator: year-spanning
// seasons are summer seasons.
func (s Season) Summer() bool { return !s.SameYear() }

// PlantingYear places a planting month inside the season: months from July
// on belong to the first year, earlier months to the following one.
func (s Season) PlantingYear(month time.Month) int {
	if month >= time.July {
		return s.FirstYear
	}
	return s.FirstYear + 1
}
