package bake

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Faultbox/midgard-bake/pkg/math"
)

var errSampleFailed = errors.New("sample failed")

// fakeClip animates bones through pose. Bones pose leaves alone (ok=false)
// keep whatever transform they currently have.
type fakeClip struct {
	name   string
	length float32
	rate   float32
	pose   func(t float32, b Bone) (Transform, bool)
	failAt int // frame index that fails, -1 for none
}

func (c *fakeClip) Name() string       { return c.name }
func (c *fakeClip) Length() float32    { return c.length }
func (c *fakeClip) FrameRate() float32 { return c.rate }

// fakeHost is a flat hierarchy: bone 0 is the root, every other bone is a
// child of parents[id]. Sampled poses only become readable after
// AwaitFrameBoundary.
type fakeHost struct {
	mu         sync.Mutex
	bones      []Bone
	parents    []int
	locals     []Transform
	pending    []Transform
	running    bool
	boundaries int
	calls      int
	events     *[]string
}

func newFakeHost(names ...string) *fakeHost {
	h := &fakeHost{running: true}
	h.add("model", -1)
	for _, n := range names {
		h.add(n, 0)
	}
	return h
}

func (h *fakeHost) add(name string, parent int) Bone {
	b := Bone{ID: len(h.bones), Name: name}
	h.bones = append(h.bones, b)
	h.parents = append(h.parents, parent)
	h.locals = append(h.locals, IdentityTransform())
	return b
}

func (h *fakeHost) record(e string) {
	if h.events != nil {
		*h.events = append(*h.events, e)
	}
}

func (h *fakeHost) Root() Bone { return h.bones[0] }

func (h *fakeHost) Descendants() []Bone {
	return append([]Bone(nil), h.bones[1:]...)
}

func (h *fakeHost) LocalTransform(b Bone) (Transform, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.locals[b.ID], nil
}

func (h *fakeHost) LocalToWorld(b Bone) (math.Mat4, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.locals[b.ID].Matrix()
	for p := h.parents[b.ID]; p >= 0; p = h.parents[p] {
		m = h.locals[p].Matrix().Mul(m)
	}
	return m, nil
}

func (h *fakeHost) WorldToLocal(b Bone) (math.Mat4, error) {
	m, err := h.LocalToWorld(b)
	return m.Inverse(), err
}

func (h *fakeHost) Running() bool { return h.running }

func (h *fakeHost) SampleClip(_ context.Context, clip Clip, t float32) error {
	c := clip.(*fakeClip)
	if c.failAt >= 0 && h.calls == c.failAt {
		h.calls = 0
		return errSampleFailed
	}
	h.calls++
	h.record(fmt.Sprintf("sample %v", t))

	h.mu.Lock()
	defer h.mu.Unlock()
	next := append([]Transform(nil), h.locals...)
	for _, b := range h.bones[1:] {
		if tr, ok := c.pose(t, b); ok {
			next[b.ID] = tr
		}
	}
	h.pending = next
	return nil
}

func (h *fakeHost) AwaitFrameBoundary(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending != nil {
		h.locals = h.pending
		h.pending = nil
	}
	h.boundaries++
	h.record("boundary")
	return nil
}

func (h *fakeHost) CapturePose() *Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	locals := make(map[int]Transform, len(h.locals))
	for id, t := range h.locals {
		locals[id] = t
	}
	return NewSnapshot(locals)
}

func (h *fakeHost) RestorePose(snap *Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := append([]Transform(nil), h.locals...)
	for id := range next {
		if t, ok := snap.Lookup(id); ok {
			next[id] = t
		}
	}
	h.pending = next
	h.calls = 0
}

func at(x, y, z float32) Transform {
	t := IdentityTransform()
	t.Position = math.Vec3{X: x, Y: y, Z: z}
	return t
}

type recordHook struct {
	name   string
	events *[]string
	err    error
}

func (r *recordHook) AfterSample(context.Context) error {
	*r.events = append(*r.events, r.name)
	return r.err
}

// memSink keeps written documents in memory.
type memSink struct {
	files map[string]string
	order []string
}

func (s *memSink) Write(name string, data []byte) ([]string, error) {
	if s.files == nil {
		s.files = make(map[string]string)
	}
	s.files[name] = string(data)
	s.order = append(s.order, name)
	return []string{"mem://" + name}, nil
}

// textEncoder prints the document with %v; deterministic for our values.
type textEncoder struct{}

func (textEncoder) Marshal(doc *Document) ([]byte, error) {
	return []byte(fmt.Sprintf("%s %v %d %v", doc.Name, doc.Length, doc.FrameCount, doc.Timelines)), nil
}
