// Package scene provides an RSM model hierarchy that the baker can drive.
//
// Pose changes go through a frame clock: SampleClip and RestorePose only
// stage a pose, which the clock commits on its next tick. Readers always see
// the last committed frame.
package scene

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Faultbox/midgard-bake/internal/bake"
	"github.com/Faultbox/midgard-bake/pkg/math"
	"github.com/Faultbox/midgard-bake/pkg/rsm"
)

var (
	ErrEmptyModel      = errors.New("model has no nodes")
	ErrUnknownNode     = errors.New("unknown node")
	ErrUnsupportedClip = errors.New("clip does not belong to this scene")
	ErrAlreadyRunning  = errors.New("frame clock already running")
)

type node struct {
	name   string
	parent int // -1 for top-level nodes
	src    *rsm.Node
}

// Scene is a transform hierarchy built from an RSM model.
type Scene struct {
	nodes  []node
	byName map[string]int
	root   int
	order  []int // descendants of root, depth-first pre-order

	mu      sync.Mutex
	locals  []bake.Transform
	pending map[int]bake.Transform
	frame   chan struct{} // closed when the next frame is committed
	frameNo uint64
	running bool
}

// New builds a scene from model. Every node starts at its pose at time 0.
func New(model *rsm.Model) (*Scene, error) {
	if len(model.Nodes) == 0 {
		return nil, ErrEmptyModel
	}

	s := &Scene{
		nodes:   make([]node, len(model.Nodes)),
		byName:  make(map[string]int, len(model.Nodes)),
		locals:  make([]bake.Transform, len(model.Nodes)),
		pending: make(map[int]bake.Transform),
		frame:   make(chan struct{}),
	}
	for i := range model.Nodes {
		n := &model.Nodes[i]
		s.nodes[i] = node{name: n.Name, parent: -1, src: n}
		if _, dup := s.byName[n.Name]; !dup {
			s.byName[n.Name] = i
		}
		s.locals[i] = fromPose(n.PoseAt(0))
	}

	root := model.Root()
	if root == nil {
		root = &model.Nodes[0]
	}
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.src == root || n.src.Parent == "" || n.src.Parent == n.name {
			continue
		}
		if p, ok := s.byName[n.src.Parent]; ok {
			n.parent = p
		}
	}
	for i := range s.nodes {
		if s.nodes[i].src == root {
			s.root = i
		}
	}
	s.order = s.walk()
	return s, nil
}

// walk lists the root's subtree followed by any other top-level trees, in
// file order. The root itself is left out.
func (s *Scene) walk() []int {
	children := make([][]int, len(s.nodes))
	var tops []int
	for i, n := range s.nodes {
		if n.parent < 0 {
			if i != s.root {
				tops = append(tops, i)
			}
			continue
		}
		children[n.parent] = append(children[n.parent], i)
	}

	visited := make([]bool, len(s.nodes))
	visited[s.root] = true
	var order []int
	var visit func(i int)
	visit = func(i int) {
		for _, c := range children[i] {
			if visited[c] {
				continue
			}
			visited[c] = true
			order = append(order, c)
			visit(c)
		}
	}
	visit(s.root)
	for _, t := range tops {
		if !visited[t] {
			visited[t] = true
			order = append(order, t)
			visit(t)
		}
	}
	return order
}

func fromPose(p rsm.Pose) bake.Transform {
	return bake.Transform{Position: p.Position, Rotation: p.Rotation, Scale: p.Scale}
}

func (s *Scene) bone(i int) bake.Bone {
	return bake.Bone{ID: i, Name: s.nodes[i].name}
}

// Root returns the model's root node.
func (s *Scene) Root() bake.Bone {
	return s.bone(s.root)
}

// Descendants returns every node except the root. The order does not change
// between calls.
func (s *Scene) Descendants() []bake.Bone {
	bones := make([]bake.Bone, len(s.order))
	for i, id := range s.order {
		bones[i] = s.bone(id)
	}
	return bones
}

// Bone looks a node up by name.
func (s *Scene) Bone(name string) (bake.Bone, error) {
	id, ok := s.byName[name]
	if !ok {
		return bake.Bone{}, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	return s.bone(id), nil
}

func (s *Scene) check(b bake.Bone) error {
	if b.ID < 0 || b.ID >= len(s.nodes) {
		return fmt.Errorf("%w: id %d", ErrUnknownNode, b.ID)
	}
	return nil
}

// LocalTransform returns the committed local transform of b.
func (s *Scene) LocalTransform(b bake.Bone) (bake.Transform, error) {
	if err := s.check(b); err != nil {
		return bake.Transform{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locals[b.ID], nil
}

// LocalToWorld returns the matrix taking b's local space to world space.
func (s *Scene) LocalToWorld(b bake.Bone) (math.Mat4, error) {
	if err := s.check(b); err != nil {
		return math.Mat4{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.worldLocked(b.ID), nil
}

// WorldToLocal returns the inverse of LocalToWorld.
func (s *Scene) WorldToLocal(b bake.Bone) (math.Mat4, error) {
	m, err := s.LocalToWorld(b)
	if err != nil {
		return math.Mat4{}, err
	}
	return m.Inverse(), nil
}

func (s *Scene) worldLocked(id int) math.Mat4 {
	m := s.locals[id].Matrix()
	// Depth is bounded by the node count, which also breaks parent cycles.
	for p, depth := s.nodes[id].parent, 0; p >= 0 && depth < len(s.nodes); p, depth = s.nodes[p].parent, depth+1 {
		m = s.locals[p].Matrix().Mul(m)
	}
	return m
}

// SampleClip stages every node's pose at normalized time t of clip. The pose
// becomes visible at the next frame boundary.
func (s *Scene) SampleClip(ctx context.Context, clip bake.Clip, t float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, ok := clip.(*Clip)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedClip, clip.Name())
	}

	ms := c.TimeMs(t)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.nodes {
		s.pending[i] = fromPose(s.nodes[i].src.PoseAt(ms))
	}
	return nil
}

// SetLocal overrides a node's local transform in the current frame.
// Frame hooks use it after the boundary has passed.
func (s *Scene) SetLocal(b bake.Bone, t bake.Transform) error {
	if err := s.check(b); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locals[b.ID] = t
	return nil
}

// CapturePose copies the committed pose of every node.
func (s *Scene) CapturePose() *bake.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	locals := make(map[int]bake.Transform, len(s.locals))
	for id, t := range s.locals {
		locals[id] = t
	}
	return bake.NewSnapshot(locals)
}

// RestorePose stages snap for the next frame. Nodes missing from snap keep
// whatever pose they have.
func (s *Scene) RestorePose(snap *bake.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.nodes {
		if t, ok := snap.Lookup(i); ok {
			s.pending[i] = t
		}
	}
}

// Running reports whether the frame clock is ticking.
func (s *Scene) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Step commits the staged pose immediately, as one frame of the clock would.
func (s *Scene) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked()
}

func (s *Scene) commitLocked() {
	for id, t := range s.pending {
		s.locals[id] = t
	}
	clear(s.pending)
	s.frameNo++
	close(s.frame)
	s.frame = make(chan struct{})
}

// AwaitFrameBoundary blocks until the next frame has been committed.
func (s *Scene) AwaitFrameBoundary(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return bake.ErrHostNotRunning
	}
	ch, gen := s.frame, s.frameNo
	s.mu.Unlock()

	select {
	case <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frameNo == gen {
		// Woken by the clock stopping rather than by a commit.
		return bake.ErrHostNotRunning
	}
	return nil
}

// Start launches the frame clock, committing one frame every interval until
// ctx is done. The returned channel is closed once the clock has stopped.
func (s *Scene) Start(ctx context.Context, interval time.Duration) (<-chan struct{}, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.tick(ctx, interval)
	}()
	return done, nil
}

// Run is the blocking form of Start.
func (s *Scene) Run(ctx context.Context, interval time.Duration) error {
	done, err := s.Start(ctx, interval)
	if err != nil {
		return err
	}
	<-done
	return ctx.Err()
}

func (s *Scene) tick(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer func() {
		s.mu.Lock()
		s.running = false
		// Release waiters without committing; they see ErrHostNotRunning.
		close(s.frame)
		s.frame = make(chan struct{})
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step()
		}
	}
}
