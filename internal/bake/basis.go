package bake

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-bake/pkg/math"
)

// ErrUnknownBasis is returned by NewBasis for an unrecognised kind.
var ErrUnknownBasis = errors.New("unknown basis")

// Basis names accepted by NewBasis.
const (
	BasisWorld = "world"
	BasisRest  = "rest"
	BasisAxis  = "axis"
)

// Basis turns a bone's current transform into the value that is stored.
type Basis interface {
	Resolve(h Hierarchy, b Bone) (Value, error)
}

// WorldBasis stores each bone's matrix relative to the root:
// worldToLocal(root) * localToWorld(bone).
type WorldBasis struct {
	RootInverse math.Mat4
}

// NewWorldBasis captures the root's world-to-local matrix. The root is
// expected to stay put for the whole bake.
func NewWorldBasis(h Hierarchy) (*WorldBasis, error) {
	w2l, err := h.WorldToLocal(h.Root())
	if err != nil {
		return nil, fmt.Errorf("reading root matrix: %w", err)
	}
	return &WorldBasis{RootInverse: w2l}, nil
}

// Resolve implements Basis.
func (w *WorldBasis) Resolve(h Hierarchy, b Bone) (Value, error) {
	l2w, err := h.LocalToWorld(b)
	if err != nil {
		return nil, err
	}
	return Matrix(w.RootInverse.Mul(l2w)), nil
}

// RestBasis stores the motion relative to the rest pose:
// inverse(rest(bone)) * local(bone). Bones missing from the rest snapshot
// are stored as their plain local transform.
type RestBasis struct {
	Rest *Snapshot
}

// Resolve implements Basis.
func (r RestBasis) Resolve(h Hierarchy, b Bone) (Value, error) {
	local, err := h.LocalTransform(b)
	if err != nil {
		return nil, err
	}
	rest, ok := r.Rest.Lookup(b.ID)
	if !ok {
		return TRS(local), nil
	}
	if rest == local {
		return TRS(IdentityTransform()), nil
	}
	delta := rest.Matrix().Inverse().Mul(local.Matrix())
	return TRS(TransformFromMatrix(delta)), nil
}

// AxisScaleBasis stores the local transform with the position scaled per
// axis, typically a unit conversion.
type AxisScaleBasis struct {
	Scale math.Vec3
}

// Resolve implements Basis.
func (a AxisScaleBasis) Resolve(h Hierarchy, b Bone) (Value, error) {
	local, err := h.LocalTransform(b)
	if err != nil {
		return nil, err
	}
	local.Position = local.Position.Mul(a.Scale)
	return TRS(local), nil
}

// NewBasis builds the basis named by kind.
func NewBasis(kind string, h Hierarchy, rest *Snapshot, axisScale math.Vec3) (Basis, error) {
	switch kind {
	case BasisWorld, "":
		return NewWorldBasis(h)
	case BasisRest:
		return RestBasis{Rest: rest}, nil
	case BasisAxis:
		return AxisScaleBasis{Scale: axisScale}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBasis, kind)
	}
}
