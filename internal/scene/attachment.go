package scene

import (
	"context"
	"fmt"

	"github.com/Faultbox/midgard-bake/internal/bake"
)

// Attachment pins a node to another node's world position and rotation.
// It runs as a frame hook, after the sampled pose is committed and before
// the baker reads it. The node keeps its own scale.
type Attachment struct {
	scene  *Scene
	node   bake.Bone
	target bake.Bone
}

// NewAttachment attaches node to target. Both must exist in s.
func NewAttachment(s *Scene, node, target string) (*Attachment, error) {
	n, err := s.Bone(node)
	if err != nil {
		return nil, fmt.Errorf("attachment node: %w", err)
	}
	t, err := s.Bone(target)
	if err != nil {
		return nil, fmt.Errorf("attachment target: %w", err)
	}
	return &Attachment{scene: s, node: n, target: t}, nil
}

// AfterSample moves the node onto its target.
func (a *Attachment) AfterSample(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	targetWorld, err := a.scene.LocalToWorld(a.target)
	if err != nil {
		return err
	}
	local, err := a.scene.LocalTransform(a.node)
	if err != nil {
		return err
	}

	m := targetWorld
	if p := a.scene.nodes[a.node.ID].parent; p >= 0 {
		parentWorld, err := a.scene.LocalToWorld(a.scene.bone(p))
		if err != nil {
			return err
		}
		m = parentWorld.Inverse().Mul(targetWorld)
	}

	pos, rot, _ := m.Decompose()
	local.Position = pos
	local.Rotation = rot
	return a.scene.SetLocal(a.node, local)
}
