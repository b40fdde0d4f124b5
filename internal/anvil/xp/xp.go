// Package xp converts between experience levels and experience points.
package xp

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

var (
	// ErrNegativeLevel is returned for level arguments below zero.
	ErrNegativeLevel = errors.New("level must not be negative")
	// ErrNegativeXP is returned for experience arguments below zero.
	ErrNegativeXP = errors.New("xp must not be negative")
	// ErrOutOfRange is returned for levels above MaxLevel, experience above
	// MaxXP, and totals too large to represent.
	ErrOutOfRange = errors.New("value out of range")
)

// MaxLevel is the highest level the curve is evaluated for; its experience
// total still fits in an int.
const MaxLevel = 1 << (bits.UintSize/2 - 3)

// MaxXP is the experience total at MaxLevel.
var MaxXP = curve(MaxLevel)

// Segment boundaries of the level curve.
const (
	lowTierMax = 16
	midTierMax = 31
)

// LevelToXP returns the total experience points needed to reach level from zero.
func LevelToXP(level int) (int, error) {
	if level < 0 {
		return 0, fmt.Errorf("level %d: %w", level, ErrNegativeLevel)
	}
	if level > MaxLevel {
		return 0, fmt.Errorf("level %d above %d: %w", level, MaxLevel, ErrOutOfRange)
	}
	return curve(level), nil
}

// LevelToXPFloat floors a fractional level and converts it like LevelToXP.
func LevelToXPFloat(level float64) (int, error) {
	if math.IsNaN(level) || level < 0 {
		return 0, fmt.Errorf("level %v: %w", level, ErrNegativeLevel)
	}
	if level > MaxLevel {
		return 0, fmt.Errorf("level %v above %d: %w", level, MaxLevel, ErrOutOfRange)
	}
	return LevelToXP(int(math.Floor(level)))
}

// curve evaluates the piecewise level curve. The mid and high tiers are written
// over a common denominator of 2 so the arithmetic stays integral.
func curve(l int) int {
	switch {
	case l <= lowTierMax:
		return l*l + 6*l
	case l <= midTierMax:
		return (5*l*l - 81*l + 720) / 2
	default:
		return (9*l*l - 325*l + 4440) / 2
	}
}

// XPToLevel returns the highest level whose total experience is at most xp.
func XPToLevel(xp int) (int, error) {
	if xp < 0 {
		return 0, fmt.Errorf("xp %d: %w", xp, ErrNegativeXP)
	}
	if xp > MaxXP {
		return 0, fmt.Errorf("xp %d above %d: %w", xp, MaxXP, ErrOutOfRange)
	}

	// Closed-form estimate from the tier the xp falls in, then settle on
	// the exact integer.
	var est float64
	x := float64(xp)
	switch {
	case xp < curve(lowTierMax+1):
		est = -3 + math.Sqrt(9+x)
	case xp < curve(midTierMax+1):
		est = (81 + math.Sqrt(81*81-20*(720-2*x))) / 10
	default:
		est = (325 + math.Sqrt(325*325-36*(4440-2*x))) / 18
	}

	level := int(est)
	level = max(0, min(level, MaxLevel))
	for level > 0 && curve(level) > xp {
		level--
	}
	for level < MaxLevel && curve(level+1) <= xp {
		level++
	}
	return level, nil
}

// XPBetweenLevels returns the experience needed to go from one level to another.
// The result is negative when to is below from.
func XPBetweenLevels(from, to int) (int, error) {
	fromXP, err := LevelToXP(from)
	if err != nil {
		return 0, err
	}
	toXP, err := LevelToXP(to)
	if err != nil {
		return 0, err
	}
	return toXP - fromXP, nil
}

// IncrementalXP is the experience spent when every anvil step is paid for on
// its own, starting from level zero each time.
func IncrementalXP(stepCosts []int) (int, error) {
	total := 0
	for _, c := range stepCosts {
		v, err := LevelToXP(c)
		if err != nil {
			return 0, err
		}
		if total > math.MaxInt-v {
			return 0, fmt.Errorf("total xp: %w", ErrOutOfRange)
		}
		total += v
	}
	return total, nil
}

// BulkXP is the experience of the single most expensive step. Never more than
// IncrementalXP for the same steps.
func BulkXP(stepCosts []int) (int, error) {
	if len(stepCosts) == 0 {
		return 0, nil
	}
	highest := stepCosts[0]
	for _, c := range stepCosts[1:] {
		if c > highest {
			highest = c
		}
	}
	return LevelToXP(highest)
}
