package bake

import (
	"context"
	"errors"

	"github.com/Faultbox/midgard-bake/pkg/math"
)

// ErrHostNotRunning is returned when a bake is started while the host's
// frame clock is stopped. Nothing is sampled or written.
var ErrHostNotRunning = errors.New("host is not running")

// Bone is a handle into the host hierarchy.
type Bone struct {
	ID   int
	Name string
}

// Clip is an animation the host knows how to sample.
type Clip interface {
	Name() string
	Length() float32    // seconds
	FrameRate() float32 // frames per second
}

// Hierarchy reads transforms from the host scene graph.
type Hierarchy interface {
	Root() Bone
	// Descendants returns every bone below the root, in an order that is
	// stable for the lifetime of the hierarchy.
	Descendants() []Bone
	LocalTransform(b Bone) (Transform, error)
	LocalToWorld(b Bone) (math.Mat4, error)
	WorldToLocal(b Bone) (math.Mat4, error)
}

// Host is the scene the baker drives.
//
// SampleClip only schedules a pose change; it becomes visible to the
// Hierarchy readers after the next frame boundary. AwaitFrameBoundary blocks
// until that boundary has passed.
type Host interface {
	Hierarchy
	Running() bool
	SampleClip(ctx context.Context, clip Clip, t float32) error
	AwaitFrameBoundary(ctx context.Context) error
	CapturePose() *Snapshot
	// RestorePose applies snap to every bone it knows. Bones missing from
	// the snapshot are left alone.
	RestorePose(snap *Snapshot)
}

// FrameHook runs after a frame boundary and before transforms are read, so
// dependent objects can catch up with the sampled pose.
type FrameHook interface {
	AfterSample(ctx context.Context) error
}

// Snapshot is a captured pose, keyed by bone ID. It is read-only.
type Snapshot struct {
	locals map[int]Transform
}

// NewSnapshot copies locals into a new snapshot.
func NewSnapshot(locals map[int]Transform) *Snapshot {
	s := &Snapshot{locals: make(map[int]Transform, len(locals))}
	for id, t := range locals {
		s.locals[id] = t
	}
	return s
}

// Lookup returns the captured transform of a bone.
func (s *Snapshot) Lookup(id int) (Transform, bool) {
	if s == nil {
		return Transform{}, false
	}
	t, ok := s.locals[id]
	return t, ok
}

// Len returns the number of captured bones.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.locals)
}
