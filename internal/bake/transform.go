// Package bake turns an animated transform hierarchy into per-bone
// timelines: it samples every frame of a clip, groups the samples by bone
// name and collapses bones that never move.
package bake

import "github.com/Faultbox/midgard-bake/pkg/math"

// Transform is a bone's local position, rotation and scale.
type Transform struct {
	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
}

// IdentityTransform returns the transform that changes nothing.
func IdentityTransform() Transform {
	return Transform{Rotation: math.QuatIdentity(), Scale: math.One()}
}

// Matrix composes T * R * S.
func (t Transform) Matrix() math.Mat4 {
	return math.Compose(t.Position, t.Rotation, t.Scale)
}

// TransformFromMatrix decomposes an affine matrix.
func TransformFromMatrix(m math.Mat4) Transform {
	p, r, s := m.Decompose()
	return Transform{Position: p, Rotation: r, Scale: s}
}

// RotationMode selects how TRS rotations are written out.
type RotationMode int

const (
	RotationEuler      RotationMode = iota // X, Y, Z degrees
	RotationQuaternion                     // X, Y, Z, W
)

// String returns the config name of the mode.
func (m RotationMode) String() string {
	if m == RotationQuaternion {
		return "quaternion"
	}
	return "euler"
}

// Value is one stored sample. Equality is exact on every float the value
// carries; Arrays returns those floats grouped the way they are serialized.
type Value interface {
	Equal(other Value) bool
	Arrays(mode RotationMode) [][]float32
}

// TRS stores a sample as position, rotation and scale.
type TRS Transform

// Equal reports whether other is a TRS with identical components.
func (v TRS) Equal(other Value) bool {
	o, ok := other.(TRS)
	return ok && v == o
}

// Arrays returns position, rotation and scale.
func (v TRS) Arrays(mode RotationMode) [][]float32 {
	rot := v.Rotation.Euler().Array()
	if mode == RotationQuaternion {
		rot = v.Rotation.Array()
	}
	return [][]float32{v.Position.Array(), rot, v.Scale.Array()}
}

// Matrix stores a sample as a full 4x4 matrix.
type Matrix math.Mat4

// Equal reports whether other is a Matrix with identical elements.
func (v Matrix) Equal(other Value) bool {
	o, ok := other.(Matrix)
	return ok && v == o
}

// Arrays returns the 16 elements as a single array.
func (v Matrix) Arrays(RotationMode) [][]float32 {
	return [][]float32{math.Mat4(v).Array()}
}
