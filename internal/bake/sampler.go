package bake

import (
	"context"
	"fmt"
)

// BoneSample is one bone's stored value at one normalized time.
type BoneSample struct {
	Name  string
	Time  float32
	Value Value
}

// Frame holds the samples of every baked bone at one instant.
type Frame []BoneSample

// FrameCount returns how many frames a clip is sampled at:
// floor(length * rate), never less than one so that pose clips of zero
// length still produce a sample.
func FrameCount(length, rate float32) int {
	n := int(float32(length * rate))
	if n < 1 {
		return 1
	}
	return n
}

// Sampler steps a clip frame by frame and reads every bone through Basis.
type Sampler struct {
	Host  Host
	Basis Basis
	Bones []Bone
	Hooks []FrameHook
}

// Sample returns one Frame per frame of clip, at normalized times f/n.
// Any host or hook error aborts the whole clip.
func (s *Sampler) Sample(ctx context.Context, clip Clip) ([]Frame, error) {
	n := FrameCount(clip.Length(), clip.FrameRate())
	frames := make([]Frame, 0, n)

	for f := 0; f < n; f++ {
		t := float32(f) / float32(n)

		if err := s.Host.SampleClip(ctx, clip, t); err != nil {
			return nil, fmt.Errorf("sampling frame %d: %w", f, err)
		}
		// Reads before the boundary would see the previous pose.
		if err := s.Host.AwaitFrameBoundary(ctx); err != nil {
			return nil, fmt.Errorf("waiting for frame %d: %w", f, err)
		}
		for i, h := range s.Hooks {
			if err := h.AfterSample(ctx); err != nil {
				return nil, fmt.Errorf("frame %d hook %d: %w", f, i, err)
			}
		}

		frame := make(Frame, 0, len(s.Bones))
		for _, b := range s.Bones {
			v, err := s.Basis.Resolve(s.Host, b)
			if err != nil {
				return nil, fmt.Errorf("frame %d bone %q: %w", f, b.Name, err)
			}
			frame = append(frame, BoneSample{Name: b.Name, Time: t, Value: v})
		}
		frames = append(frames, frame)
	}

	return frames, nil
}

// SelectBones returns bones without the excluded names, keeping order.
func SelectBones(bones []Bone, exclude []string) []Bone {
	if len(exclude) == 0 {
		return bones
	}
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}
	out := make([]Bone, 0, len(bones))
	for _, b := range bones {
		if !skip[b.Name] {
			out = append(out, b)
		}
	}
	return out
}
