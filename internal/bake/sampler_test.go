package bake

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Faultbox/midgard-bake/pkg/math"
)

func TestFrameCount(t *testing.T) {
	tests := []struct {
		length float32
		rate   float32
		want   int
	}{
		{1, 30, 30},
		{2.5, 24, 60},
		{0.5, 60, 30},
		{1.01, 30, 30},
		{0, 30, 1},
		{0.01, 30, 1},
	}

	for _, tt := range tests {
		if got := FrameCount(tt.length, tt.rate); got != tt.want {
			t.Errorf("FrameCount(%v, %v) = %d, want %d", tt.length, tt.rate, got, tt.want)
		}
	}
}

func slide(t float32, b Bone) (Transform, bool) {
	if b.Name != "arm" {
		return Transform{}, false
	}
	return at(1+t, 0, 0), true
}

func TestSampler_ReadsCommittedPose(t *testing.T) {
	host := newFakeHost("root", "arm")
	clip := &fakeClip{name: "walk", length: 1, rate: 4, pose: slide, failAt: -1}

	s := &Sampler{Host: host, Basis: AxisScaleBasis{Scale: math.One()}, Bones: host.Descendants()}
	frames, err := s.Sample(context.Background(), clip)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(frames))
	}
	for f, frame := range frames {
		want := float32(f) / 4
		if len(frame) != 2 {
			t.Fatalf("frame %d: expected 2 samples, got %d", f, len(frame))
		}
		arm := frame[1]
		if arm.Name != "arm" || arm.Time != want {
			t.Errorf("frame %d: got %s at %v", f, arm.Name, arm.Time)
		}
		if got := arm.Value.(TRS).Position.X; got != 1+want {
			t.Errorf("frame %d: read stale pose, X = %v, want %v", f, got, 1+want)
		}
	}
	if host.boundaries != 4 {
		t.Errorf("expected one frame boundary per frame, got %d", host.boundaries)
	}
}

func TestSampler_HookOrder(t *testing.T) {
	var events []string
	host := newFakeHost("arm")
	host.events = &events
	clip := &fakeClip{name: "c", length: 1, rate: 2, pose: slide, failAt: -1}

	s := &Sampler{
		Host:  host,
		Basis: RestBasis{},
		Bones: host.Descendants(),
		Hooks: []FrameHook{
			&recordHook{name: "attach", events: &events},
			&recordHook{name: "look", events: &events},
		},
	}
	if _, err := s.Sample(context.Background(), clip); err != nil {
		t.Fatalf("Sample: %v", err)
	}

	want := []string{
		"sample 0", "boundary", "attach", "look",
		"sample 0.5", "boundary", "attach", "look",
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("unexpected event order:\n got %v\nwant %v", events, want)
	}
}

func TestSampler_Errors(t *testing.T) {
	t.Run("clip failure", func(t *testing.T) {
		host := newFakeHost("arm")
		clip := &fakeClip{name: "c", length: 1, rate: 4, pose: slide, failAt: 2}
		s := &Sampler{Host: host, Basis: RestBasis{}, Bones: host.Descendants()}

		frames, err := s.Sample(context.Background(), clip)
		if !errors.Is(err, errSampleFailed) {
			t.Errorf("expected sample error, got %v", err)
		}
		if frames != nil {
			t.Errorf("expected no partial frames, got %d", len(frames))
		}
	})

	t.Run("hook failure", func(t *testing.T) {
		var events []string
		boom := errors.New("boom")
		host := newFakeHost("arm")
		clip := &fakeClip{name: "c", length: 1, rate: 4, pose: slide, failAt: -1}
		s := &Sampler{
			Host:  host,
			Basis: RestBasis{},
			Bones: host.Descendants(),
			Hooks: []FrameHook{&recordHook{name: "h", events: &events, err: boom}},
		}
		if _, err := s.Sample(context.Background(), clip); !errors.Is(err, boom) {
			t.Errorf("expected hook error, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		host := newFakeHost("arm")
		clip := &fakeClip{name: "c", length: 1, rate: 4, pose: slide, failAt: -1}
		s := &Sampler{Host: host, Basis: RestBasis{}, Bones: host.Descendants()}
		if _, err := s.Sample(ctx, clip); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestSelectBones(t *testing.T) {
	bones := []Bone{{1, "a"}, {2, "shadow"}, {3, "b"}}

	got := SelectBones(bones, []string{"shadow"})
	want := []Bone{{1, "a"}, {3, "b"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SelectBones: got %v, want %v", got, want)
	}
	if got := SelectBones(bones, nil); len(got) != 3 {
		t.Errorf("no exclusions should keep every bone, got %v", got)
	}
}
