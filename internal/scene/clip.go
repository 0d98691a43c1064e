package scene

import "github.com/Faultbox/midgard-bake/pkg/rsm"

// DefaultFrameRate is used when a clip is created with a rate <= 0.
const DefaultFrameRate = 30

// Clip is a millisecond range of a model's keyframe track.
type Clip struct {
	name    string
	startMs int32
	endMs   int32
	rate    float32
}

// NewClip returns a clip covering [startMs, endMs).
func NewClip(name string, startMs, endMs int32, rate float32) *Clip {
	if endMs < startMs {
		endMs = startMs
	}
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	return &Clip{name: name, startMs: startMs, endMs: endMs, rate: rate}
}

// ModelClip returns a clip spanning the model's whole animation.
func ModelClip(name string, model *rsm.Model, rate float32) *Clip {
	return NewClip(name, 0, max(model.AnimLength, 0), rate)
}

func (c *Clip) Name() string       { return c.name }
func (c *Clip) FrameRate() float32 { return c.rate }

// Length returns the clip duration in seconds.
func (c *Clip) Length() float32 {
	return float32(c.endMs-c.startMs) / 1000
}

// Range returns the clip bounds in milliseconds.
func (c *Clip) Range() (startMs, endMs int32) {
	return c.startMs, c.endMs
}

// TimeMs maps a normalized time in [0, 1] to the model's timeline.
func (c *Clip) TimeMs(t float32) float32 {
	return float32(c.startMs) + t*float32(c.endMs-c.startMs)
}
