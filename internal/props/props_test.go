package props

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Label   string   `mapstructure:"label"`
	Count   *int     `mapstructure:"count"`
	Ratio   *float64 `mapstructure:"ratio"`
	Enabled bool     `mapstructure:"enabled"`
}

func TestProjectKeepsDeclaredFieldsOnly(t *testing.T) {
	flat := map[string]any{"label": "a", "start_time": "2025-01-01T09:00", "other": 1}
	got := Project(flat, []string{"label", "count"})
	assert.Equal(t, map[string]any{"label": "a"}, got)
}

func TestProjectIsIdempotent(t *testing.T) {
	declared := []string{"label", "count"}
	flat := map[string]any{"label": "a", "count": 3}
	once := Merge(map[string]any{}, Project(flat, declared))
	twice := Merge(once, Project(flat, declared))
	assert.Equal(t, once, twice)
	assert.Len(t, twice, 2)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := map[string]any{"a": 1}
	delta := map[string]any{"b": 2}
	out := Merge(base, delta)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, out)
	assert.Equal(t, map[string]any{"a": 1}, base)
}

func TestFlattenInvertsProjection(t *testing.T) {
	declared := []string{"label", "count"}
	flat := map[string]any{"label": "a", "count": 3}
	assert.Equal(t, flat, Flatten(Project(flat, declared), declared))
}

func TestDecodeConvertsNumericTextAndJSONNumbers(t *testing.T) {
	var s sample
	errs := Decode(map[string]any{"label": "x", "count": "7", "ratio": 2.5, "enabled": true}, &s)
	require.Empty(t, errs)
	assert.Equal(t, 7, *s.Count)
	assert.Equal(t, 2.5, *s.Ratio)
	assert.True(t, s.Enabled)

	s = sample{}
	errs = Decode(map[string]any{"count": float64(4)}, &s)
	require.Empty(t, errs)
	assert.Equal(t, 4, *s.Count)
}

func TestDecodeReportsEachBadKey(t *testing.T) {
	var s sample
	errs := Decode(map[string]any{"count": 1.5, "ratio": "lots", "label": "ok"}, &s)
	assert.Equal(t, []string{"must be an integer"}, errs.Messages("properties.count"))
	assert.Equal(t, []string{"must be a number"}, errs.Messages("properties.ratio"))
	assert.Equal(t, "ok", s.Label)
}

func TestDecodeRejectsIntegersOutOfRange(t *testing.T) {
	for _, v := range []any{1e19, -1e19, 9.223372036854775807e18, float32(1e19)} {
		var s sample
		errs := Decode(map[string]any{"count": v}, &s)
		assert.Equal(t, []string{"must be an integer"}, errs.Messages("properties.count"), "%v", v)
		assert.Nil(t, s.Count)
	}

	var s sample
	require.Empty(t, Decode(map[string]any{"count": -9.223372036854775808e18}, &s))
	assert.Equal(t, math.MinInt, *s.Count)
}

func TestDecodePanicsOnNonStruct(t *testing.T) {
	assert.Panics(t, func() {
		var n int
		Decode(map[string]any{}, &n)
	})
}

func TestEncodeSkipsZeroFields(t *testing.T) {
	n := 3
	got := Encode(sample{Label: "x", Count: &n})
	assert.Equal(t, map[string]any{"label": "x", "count": 3}, got)

	zero := 0
	ratio := 0.5
	got = Encode(&sample{Count: &zero, Ratio: &ratio, Enabled: true})
	assert.Equal(t, map[string]any{"count": 0, "ratio": 0.5, "enabled": true}, got)
	assert.Empty(t, Encode(sample{}))
}

func TestStringRequiresNonBlankText(t *testing.T) {
	_, ok := String(map[string]any{"a": "  "}, "a")
	assert.False(t, ok)
	_, ok = String(map[string]any{"a": 5}, "a")
	assert.False(t, ok)
	s, ok := String(map[string]any{"a": "x"}, "a")
	assert.True(t, ok)
	assert.Equal(t, "x", s)
}
