package rsm

import (
	"sort"

	"github.com/Faultbox/midgard-bake/pkg/math"
)

// Pose is a node's local transform at one instant.
type Pose struct {
	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
}

// PoseAt evaluates the node's local transform at timeMs.
// Keyframed rotation replaces the static axis-angle; keyframed scale
// multiplies the static scale.
func (n *Node) PoseAt(timeMs float32) Pose {
	p := Pose{
		Position: math.Vec3From(n.Position),
		Rotation: n.staticRotation(),
		Scale:    math.Vec3From(n.Scale),
	}
	if len(n.PosKeys) > 0 {
		p.Position = positionAt(n.PosKeys, timeMs)
	}
	if len(n.RotKeys) > 0 {
		p.Rotation = rotationAt(n.RotKeys, timeMs)
	}
	if len(n.ScaleKeys) > 0 {
		p.Scale = p.Scale.Mul(scaleAt(n.ScaleKeys, timeMs))
	}
	return p
}

func (n *Node) staticRotation() math.Quat {
	axis := math.Vec3From(n.RotAxis)
	if n.RotAngle == 0 || axis.Length() < 1e-6 {
		return math.QuatIdentity()
	}
	return math.QuatFromAxisAngle(axis.Normalize(), n.RotAngle)
}

// bracket returns the indices of the keys surrounding timeMs and the blend
// factor between them. Keys are assumed sorted by frame.
func bracket(n int, frame func(int) int32, timeMs float32) (prev, next int, t float32) {
	next = sort.Search(n, func(i int) bool { return float32(frame(i)) > timeMs })
	if next == 0 {
		return 0, 0, 0
	}
	if next == n {
		return n - 1, n - 1, 0
	}
	prev = next - 1
	f0, f1 := frame(prev), frame(next)
	if f1 != f0 {
		t = (timeMs - float32(f0)) / float32(f1-f0)
	}
	return prev, next, t
}

func positionAt(keys []PosKey, timeMs float32) math.Vec3 {
	prev, next, t := bracket(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	a := math.Vec3From(keys[prev].Position)
	if prev == next {
		return a
	}
	return a.Lerp(math.Vec3From(keys[next].Position), t)
}

func rotationAt(keys []RotKey, timeMs float32) math.Quat {
	prev, next, t := bracket(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	a := math.QuatFrom(keys[prev].Quaternion)
	if prev == next {
		return a
	}
	return a.Slerp(math.QuatFrom(keys[next].Quaternion), t)
}

func scaleAt(keys []ScaleKey, timeMs float32) math.Vec3 {
	prev, next, t := bracket(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	a := math.Vec3From(keys[prev].Scale)
	if prev == next {
		return a
	}
	return a.Lerp(math.Vec3From(keys[next].Scale), t)
}
