package xp

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelToXPReferenceValues(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{0, 0},
		{1, 7},
		{7, 91},
		{16, 352},
		{17, 394},
		{30, 1395},
		{31, 1507},
		{32, 1628},
		{39, 2727},
	}
	for _, tt := range tests {
		got, err := LevelToXP(tt.level)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "level %d", tt.level)
	}
}

func TestLevelToXPMonotonic(t *testing.T) {
	prev := -1
	for l := 0; l <= 200; l++ {
		got, err := LevelToXP(l)
		require.NoError(t, err)
		assert.Greater(t, got, prev, "level %d", l)
		prev = got
	}
}

func TestLevelToXPFloatFloors(t *testing.T) {
	got, err := LevelToXPFloat(7.9)
	require.NoError(t, err)
	assert.Equal(t, 91, got)

	_, err = LevelToXPFloat(-0.5)
	assert.ErrorIs(t, err, ErrNegativeLevel)
}

func TestNegativeInputsFail(t *testing.T) {
	_, err := LevelToXP(-1)
	assert.True(t, errors.Is(err, ErrNegativeLevel))

	_, err = XPToLevel(-1)
	assert.ErrorIs(t, err, ErrNegativeXP)

	_, err = XPBetweenLevels(-1, 5)
	assert.ErrorIs(t, err, ErrNegativeLevel)

	_, err = XPBetweenLevels(5, -1)
	assert.ErrorIs(t, err, ErrNegativeLevel)

	_, err = IncrementalXP([]int{3, -2})
	assert.ErrorIs(t, err, ErrNegativeLevel)
}

func TestXPToLevelRoundTrip(t *testing.T) {
	for _, n := range []int{0, 7, 15, 16, 17, 30, 31, 32, 39, 50} {
		total, err := LevelToXP(n)
		require.NoError(t, err)
		got, err := XPToLevel(total)
		require.NoError(t, err)
		assert.Equal(t, n, got, "round trip for level %d", n)
	}
}

func TestXPToLevelBetweenThresholds(t *testing.T) {
	for l := 0; l <= 100; l++ {
		lo, _ := LevelToXP(l)
		hi, _ := LevelToXP(l + 1)
		got, err := XPToLevel(hi - 1)
		require.NoError(t, err)
		assert.Equal(t, l, got, "xp %d just below level %d", hi-1, l+1)

		got, err = XPToLevel(lo)
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
}

func TestXPBetweenLevels(t *testing.T) {
	got, err := XPBetweenLevels(7, 30)
	require.NoError(t, err)
	assert.Equal(t, 1395-91, got)

	got, err = XPBetweenLevels(30, 7)
	require.NoError(t, err)
	assert.Equal(t, 91-1395, got)
}

func TestIncrementalAndBulk(t *testing.T) {
	steps := []int{5, 7, 30}
	inc, err := IncrementalXP(steps)
	require.NoError(t, err)
	assert.Equal(t, 55+91+1395, inc)

	bulk, err := BulkXP(steps)
	require.NoError(t, err)
	assert.Equal(t, 1395, bulk)
	assert.LessOrEqual(t, bulk, inc)

	bulk, err = BulkXP(nil)
	require.NoError(t, err)
	assert.Zero(t, bulk)
}

func TestOutOfRangeInputsFail(t *testing.T) {
	_, err := LevelToXP(MaxLevel + 1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = LevelToXP(2_000_000_000)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = XPToLevel(math.MaxInt)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = XPToLevel(MaxXP + 1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = LevelToXPFloat(math.Inf(1))
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = LevelToXPFloat(1e30)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = IncrementalXP([]int{MaxLevel, MaxLevel, MaxLevel, MaxLevel, MaxLevel, MaxLevel, MaxLevel, MaxLevel})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestCurveTopEnd(t *testing.T) {
	top, err := LevelToXP(MaxLevel)
	require.NoError(t, err)
	assert.Equal(t, MaxXP, top)

	below, err := LevelToXP(MaxLevel - 1)
	require.NoError(t, err)
	assert.Greater(t, top, below)
	assert.Positive(t, below)

	level, err := XPToLevel(MaxXP)
	require.NoError(t, err)
	assert.Equal(t, MaxLevel, level)

	level, err = XPToLevel(MaxXP - 1)
	require.NoError(t, err)
	assert.Equal(t, MaxLevel-1, level)
}
