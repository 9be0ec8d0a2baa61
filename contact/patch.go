package contact

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// PatchType represents the shape of a support patch
type PatchType int

const (
	PatchTypeRectangle PatchType = iota
)

func (t PatchType) String() string {
	switch t {
	case PatchTypeRectangle:
		return "rectangle"
	}
	return "unknown"
}

// Patch is the interface every support patch implements. The distribution
// solver only relies on these capabilities, never on the concrete shape.
//
// Local wrenches are laid out [fx fy fz τx τy τz] in the contact frame, z
// being the contact normal pointing into the robot.
type Patch interface {
	Type() PatchType
	// SupportsTorque reports whether the patch can transmit a moment
	SupportsTorque() bool
	// Inequalities returns rows r such that r·w <= 0 for every physically
	// valid local wrench w
	Inequalities(mu, gu float64) [][WeightsSize]float64
	// Contains reports whether a local center of pressure lies on the patch
	Contains(cop mgl64.Vec2, tolerance float64) bool
	// Vertices returns the patch corners in the contact frame
	Vertices() []mgl64.Vec3
}

// Rectangle is a flat rectangular sole centered on the contact frame origin,
// HalfLength along x and HalfWidth along y
type Rectangle struct {
	HalfLength float64
	HalfWidth  float64
}

func (r Rectangle) Type() PatchType {
	return PatchTypeRectangle
}

func (r Rectangle) SupportsTorque() bool {
	return true
}

// Inequalities of a rectangle: unilaterality, friction pyramid, torsional
// friction and center of pressure bounds (CoP x = -τy/fz, CoP y = τx/fz)
func (r Rectangle) Inequalities(mu, gu float64) [][WeightsSize]float64 {
	return [][WeightsSize]float64{
		{0, 0, -1, 0, 0, 0},
		{1, 0, -mu, 0, 0, 0},
		{-1, 0, -mu, 0, 0, 0},
		{0, 1, -mu, 0, 0, 0},
		{0, -1, -mu, 0, 0, 0},
		{0, 0, -gu, 0, 0, 1},
		{0, 0, -gu, 0, 0, -1},
		{0, 0, -r.HalfWidth, 1, 0, 0},
		{0, 0, -r.HalfWidth, -1, 0, 0},
		{0, 0, -r.HalfLength, 0, 1, 0},
		{0, 0, -r.HalfLength, 0, -1, 0},
	}
}

func (r Rectangle) Contains(cop mgl64.Vec2, tolerance float64) bool {
	return math.Abs(cop.X()) <= r.HalfLength+tolerance &&
		math.Abs(cop.Y()) <= r.HalfWidth+tolerance
}

// Vertices in counter-clockwise order seen from above
func (r Rectangle) Vertices() []mgl64.Vec3 {
	return []mgl64.Vec3{
		{-r.HalfLength, -r.HalfWidth, 0},
		{r.HalfLength, -r.HalfWidth, 0},
		{r.HalfLength, r.HalfWidth, 0},
		{-r.HalfLength, r.HalfWidth, 0},
	}
}
