package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) *time.Time {
	t := time.Date(2025, 3, 1, hour, minute, 0, 0, time.UTC)
	return &t
}

func TestParseWallClock(t *testing.T) {
	want := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-01-01T09:00", "2025-01-01T09:00:00", "2025-01-01 09:00", "2025-01-01T10:00:00+01:00"} {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := Parse("01/01/2025")
	assert.Error(t, err)
}

func TestFormatIsSecondPrecisionUTC(t *testing.T) {
	in := time.Date(2025, 1, 1, 9, 0, 0, 999, time.FixedZone("x", 3600))
	assert.Equal(t, "2025-01-01T08:00:00Z", Format(in))
	assert.Equal(t, "", FormatPtr(nil))
}

func TestCheckOrder(t *testing.T) {
	assert.NoError(t, CheckOrder(at(9, 0), at(17, 0)))
	assert.ErrorIs(t, CheckOrder(at(9, 0), at(9, 0)), ErrEndNotAfterStart)
	assert.ErrorIs(t, CheckOrder(at(10, 0), at(9, 0)), ErrEndNotAfterStart)
	assert.NoError(t, CheckOrder(nil, at(9, 0)))
	assert.NoError(t, CheckOrder(at(9, 0), nil))
}

func TestOverlaps(t *testing.T) {
	day := Interval{Start: at(9, 0), End: at(17, 0)}
	cases := []struct {
		name string
		b    Interval
		want bool
	}{
		{"inside", Interval{Start: at(12, 0), End: at(13, 0)}, true},
		{"touching end", Interval{Start: at(17, 0), End: at(18, 0)}, false},
		{"touching start", Interval{Start: at(8, 0), End: at(9, 0)}, false},
		{"open ended", Interval{Start: at(16, 0)}, true},
		{"open start", Interval{End: at(9, 30)}, true},
		{"open start before", Interval{End: at(8, 0)}, false},
		{"unknown", Interval{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(day, tc.b))
			assert.Equal(t, tc.want, Overlaps(tc.b, day))
		})
	}
}

func TestEffectiveFallsBackPerBound(t *testing.T) {
	own := Interval{End: at(12, 0)}
	event := Interval{Start: at(9, 0), End: at(17, 0)}
	got := Effective(own, event)
	assert.Equal(t, at(9, 0), got.Start)
	assert.Equal(t, at(12, 0), got.End)
}
