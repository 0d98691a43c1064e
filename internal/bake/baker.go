package bake

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-bake/pkg/math"
)

// Encoder serializes a baked document.
type Encoder interface {
	Marshal(doc *Document) ([]byte, error)
}

// Sink stores an encoded document under the clip's name and returns the
// paths it wrote.
type Sink interface {
	Write(name string, data []byte) ([]string, error)
}

// Options controls how bones are selected and resolved.
type Options struct {
	Basis     string    // BasisWorld, BasisRest or BasisAxis
	AxisScale math.Vec3 // used by BasisAxis
	Exclude   []string  // bone names left out of the bake
}

// Baker bakes clips one after another on a single host.
type Baker struct {
	Host    Host
	Options Options
	Hooks   []FrameHook
	Encoder Encoder
	Sink    Sink
	Log     *zap.Logger
}

func (b *Baker) log() *zap.Logger {
	if b.Log == nil {
		return zap.NewNop()
	}
	return b.Log
}

// BakeAll bakes, encodes and writes every clip in order. The host pose is
// captured once up front and restored after each clip, so every clip starts
// from the same pose. A failing clip is logged and skipped; its error is
// combined into the returned error and nothing is written for it.
func (b *Baker) BakeAll(ctx context.Context, clips []Clip) error {
	log := b.log()
	if !b.Host.Running() {
		log.Warn("bake skipped: host is not running")
		return ErrHostNotRunning
	}

	rest := b.Host.CapturePose()
	log.Debug("captured rest pose", zap.Int("bones", rest.Len()))

	var errs error
	for _, clip := range clips {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		paths, err := b.bakeOne(ctx, clip, rest)
		if err != nil {
			log.Error("clip failed", zap.String("clip", clip.Name()), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("clip %s: %w", clip.Name(), err))
			continue
		}
		for _, p := range paths {
			log.Info("saved animation", zap.String("clip", clip.Name()), zap.String("path", p))
		}
	}
	return errs
}

func (b *Baker) bakeOne(ctx context.Context, clip Clip, rest *Snapshot) ([]string, error) {
	doc, bakeErr := b.Bake(ctx, clip, rest)

	// Restore even after a failure so the next clip starts clean.
	b.Host.RestorePose(rest)
	if err := b.Host.AwaitFrameBoundary(ctx); err != nil {
		return nil, multierr.Append(bakeErr, fmt.Errorf("restoring rest pose: %w", err))
	}
	if bakeErr != nil {
		return nil, bakeErr
	}

	data, err := b.Encoder.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}
	paths, err := b.Sink.Write(doc.Name, data)
	if err != nil {
		return paths, fmt.Errorf("writing: %w", err)
	}
	return paths, nil
}

// Bake samples clip and returns its compressed timelines. rest is the pose
// the rest basis measures against; it may be nil for the other bases.
func (b *Baker) Bake(ctx context.Context, clip Clip, rest *Snapshot) (*Document, error) {
	basis, err := NewBasis(b.Options.Basis, b.Host, rest, b.Options.AxisScale)
	if err != nil {
		return nil, err
	}

	sampler := &Sampler{
		Host:  b.Host,
		Basis: basis,
		Bones: SelectBones(b.Host.Descendants(), b.Options.Exclude),
		Hooks: b.Hooks,
	}

	n := FrameCount(clip.Length(), clip.FrameRate())
	b.log().Debug("baking clip",
		zap.String("clip", clip.Name()),
		zap.Float32("length", clip.Length()),
		zap.Int("frames", n),
		zap.Int("bones", len(sampler.Bones)),
	)

	frames, err := sampler.Sample(ctx, clip)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Name:       clip.Name(),
		Length:     clip.Length(),
		FrameCount: n,
		Timelines:  CompressAll(Assemble(frames)),
	}
	b.log().Debug("compressed timelines",
		zap.String("clip", clip.Name()),
		zap.Int("timelines", len(doc.Timelines)),
		zap.Int("static", doc.StaticCount()),
		zap.Int("points", doc.PointCount()),
	)
	return doc, nil
}
