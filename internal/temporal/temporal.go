// Package temporal enforces interval well-formedness and non-overlap.
//
// Wall-clock input is timezone-naive and interpreted as UTC. Every time this
// package returns is UTC truncated to whole seconds.
package temporal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var inputLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

var ErrEndNotAfterStart = errors.New("must be after start_time")

// Parse reads YYYY-MM-DDTHH:MM[:SS] as UTC. RFC3339 with an offset is also
// accepted and converted to UTC.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Normalize(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (want YYYY-MM-DDTHH:MM[:SS])", s)
}

// Normalize converts t to UTC at second precision.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Format renders t the way records are stored and emitted.
func Format(t time.Time) string {
	return Normalize(t).Format(time.RFC3339)
}

// FormatPtr is Format for optional bounds; nil yields "".
func FormatPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return Format(*t)
}

// CheckOrder fails unless end is strictly after start. Missing bounds pass.
func CheckOrder(start, end *time.Time) error {
	if start == nil || end == nil {
		return nil
	}
	if !end.After(*start) {
		return ErrEndNotAfterStart
	}
	return nil
}

// Interval is a half-open window [Start, End). A nil Start is unbounded in
// the past, a nil End unbounded in the future.
type Interval struct {
	Start *time.Time
	End   *time.Time
}

// Known reports whether at least one bound is concrete. Intervals with no
// known bound take no part in overlap checks.
func (i Interval) Known() bool {
	return i.Start != nil || i.End != nil
}

// Overlaps applies s1 < e2 && s2 < e1 with missing bounds treated as
// infinite. It is false when either interval has no known bound.
func Overlaps(a, b Interval) bool {
	if !a.Known() || !b.Known() {
		return false
	}
	return before(a.Start, b.End) && before(b.Start, a.End)
}

// before compares a start against an end; nil start is -inf, nil end is +inf.
func before(start, end *time.Time) bool {
	if start == nil || end == nil {
		return true
	}
	return start.Before(*end)
}

// Effective picks each bound from own when set and falls back to inherited.
func Effective(own, inherited Interval) Interval {
	out := own
	if out.Start == nil {
		out.Start = inherited.Start
	}
	if out.End == nil {
		out.End = inherited.End
	}
	return out
}
