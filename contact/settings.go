package contact

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// WeightsSize is the length of the weight vector: 3 force weights followed
// by 3 torque weights
const WeightsSize = 6

var ErrInvalidSettings = errors.New("contact: invalid settings")

// Settings describes the geometry, friction and weighting of a rectangular
// contact. Settings are values: the With* methods return validated copies
// and never mutate the receiver.
type Settings struct {
	FrameName string
	// Mu is the linear friction coefficient
	Mu float64
	// Gu is the torsional friction coefficient
	Gu float64
	// Weights of the distribution objective, [fx fy fz τx τy τz]
	Weights    []float64
	HalfLength float64
	HalfWidth  float64
}

// DefaultWeights returns unit weights
func DefaultWeights() []float64 {
	return []float64{1, 1, 1, 1, 1, 1}
}

// Validate checks every invariant of the settings
func (s Settings) Validate() error {
	if err := positive("mu", s.Mu); err != nil {
		return err
	}
	if err := positive("gu", s.Gu); err != nil {
		return err
	}
	if err := positive("half_length", s.HalfLength); err != nil {
		return err
	}
	if err := positive("half_width", s.HalfWidth); err != nil {
		return err
	}
	if len(s.Weights) != WeightsSize {
		return fmt.Errorf("%w: weights must have %d values, got %d", ErrInvalidSettings, WeightsSize, len(s.Weights))
	}
	for i, w := range s.Weights {
		if err := positive(fmt.Sprintf("weights[%d]", i), w); err != nil {
			return err
		}
	}
	return nil
}

func positive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s must be a finite positive number, got %v", ErrInvalidSettings, field, v)
	}
	return nil
}

// Clone returns a deep copy
func (s Settings) Clone() Settings {
	s.Weights = slices.Clone(s.Weights)
	return s
}

// ForceWeights returns weights[0:3]
func (s Settings) ForceWeights() mgl64.Vec3 {
	if len(s.Weights) != WeightsSize {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{s.Weights[0], s.Weights[1], s.Weights[2]}
}

// TorqueWeights returns weights[3:6]
func (s Settings) TorqueWeights() mgl64.Vec3 {
	if len(s.Weights) != WeightsSize {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{s.Weights[3], s.Weights[4], s.Weights[5]}
}

// WithMu returns a copy with a new linear friction coefficient
func (s Settings) WithMu(mu float64) (Settings, error) {
	out := s.Clone()
	out.Mu = mu
	return out, out.Validate()
}

// WithGu returns a copy with a new torsional friction coefficient
func (s Settings) WithGu(gu float64) (Settings, error) {
	out := s.Clone()
	out.Gu = gu
	return out, out.Validate()
}

// WithForceWeights returns a copy with new force weights, weights[0:3]
func (s Settings) WithForceWeights(w mgl64.Vec3) (Settings, error) {
	out := s.Clone()
	if len(out.Weights) != WeightsSize {
		return out, out.Validate()
	}
	copy(out.Weights[0:3], w[:])
	return out, out.Validate()
}

// WithTorqueWeights returns a copy with new torque weights, weights[3:6]
func (s Settings) WithTorqueWeights(w mgl64.Vec3) (Settings, error) {
	out := s.Clone()
	if len(out.Weights) != WeightsSize {
		return out, out.Validate()
	}
	copy(out.Weights[3:6], w[:])
	return out, out.Validate()
}
