package search

import (
	"fmt"
	"math"

	"github.com/arloliu/schemsearch/errs"
	"github.com/arloliu/schemsearch/internal/options"
)

// DefaultThreshold is the match threshold used by DefaultBehavior.
const DefaultThreshold = 0.9

// Behavior configures a search. The zero value compares block states exactly
// and accepts only perfect matches once Threshold is set to 1.
type Behavior struct {
	// IgnoreBlockData compares blocks by name only, dropping the
	// "[key=value,...]" state suffix.
	IgnoreBlockData bool
	// IgnoreBlockEntities is reserved; block entities are never compared.
	IgnoreBlockEntities bool
	// IgnoreAir makes air in the volume match any pattern block.
	IgnoreAir bool
	// AirAsAny makes air in the pattern match any volume block.
	AirAsAny bool
	// IgnoreEntities is reserved; entities are never compared.
	IgnoreEntities bool
	// Threshold is the minimum fraction of matching blocks, inclusive.
	Threshold float64
}

// BehaviorOption configures a Behavior built with NewBehavior.
type BehaviorOption = options.Option[*Behavior]

// DefaultBehavior returns the defaults of the command line tool: exact block
// states, no air handling and DefaultThreshold.
func DefaultBehavior() Behavior {
	return Behavior{Threshold: DefaultThreshold}
}

// NewBehavior builds a validated Behavior starting from DefaultBehavior.
//
// Example:
//
//	behavior, err := search.NewBehavior(
//	    search.WithIgnoreBlockData(true),
//	    search.WithThreshold(0.95),
//	)
func NewBehavior(opts ...BehaviorOption) (Behavior, error) {
	b := DefaultBehavior()
	if err := options.Apply(&b, opts...); err != nil {
		return Behavior{}, err
	}
	if err := b.Validate(); err != nil {
		return Behavior{}, err
	}

	return b, nil
}

// WithIgnoreBlockData sets Behavior.IgnoreBlockData.
func WithIgnoreBlockData(v bool) BehaviorOption {
	return options.NoError(func(b *Behavior) { b.IgnoreBlockData = v })
}

// WithIgnoreBlockEntities sets Behavior.IgnoreBlockEntities.
func WithIgnoreBlockEntities(v bool) BehaviorOption {
	return options.NoError(func(b *Behavior) { b.IgnoreBlockEntities = v })
}

// WithIgnoreAir sets Behavior.IgnoreAir.
func WithIgnoreAir(v bool) BehaviorOption {
	return options.NoError(func(b *Behavior) { b.IgnoreAir = v })
}

// WithAirAsAny sets Behavior.AirAsAny.
func WithAirAsAny(v bool) BehaviorOption {
	return options.NoError(func(b *Behavior) { b.AirAsAny = v })
}

// WithIgnoreEntities sets Behavior.IgnoreEntities.
func WithIgnoreEntities(v bool) BehaviorOption {
	return options.NoError(func(b *Behavior) { b.IgnoreEntities = v })
}

// WithThreshold sets Behavior.Threshold, which must lie in [0, 1].
func WithThreshold(threshold float64) BehaviorOption {
	return options.New(func(b *Behavior) error {
		if err := validateThreshold(threshold); err != nil {
			return err
		}
		b.Threshold = threshold

		return nil
	})
}

// Validate reports whether the behavior can be used for a search.
func (b Behavior) Validate() error {
	return validateThreshold(b.Threshold)
}

func validateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: got %v", errs.ErrInvalidThreshold, threshold)
	}

	return nil
}

// thresholdEpsilon absorbs the rounding of 1-threshold, e.g. 10*(1-0.9) is
// 0.9999999999999998.
const thresholdEpsilon = 1e-9

// MaxMismatches returns how many of count blocks may differ for a window to
// still reach the threshold. A window with m mismatches is accepted exactly
// when m <= MaxMismatches(count), which is (count-m)/count >= Threshold.
//
// Thresholds outside [0, 1] are clamped; NaN allows no mismatch.
func (b Behavior) MaxMismatches(count int) int {
	if count <= 0 || math.IsNaN(b.Threshold) {
		return 0
	}

	budget := math.Floor(float64(count)*(1-b.Threshold) + thresholdEpsilon)
	switch {
	case budget < 0:
		return 0
	case budget > float64(count):
		return count
	default:
		return int(budget)
	}
}
