package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-bake/internal/bake"
	"github.com/Faultbox/midgard-bake/internal/config"
	"github.com/Faultbox/midgard-bake/internal/logger"
	"github.com/Faultbox/midgard-bake/internal/output"
	"github.com/Faultbox/midgard-bake/internal/scene"
	"github.com/Faultbox/midgard-bake/pkg/encoding"
	"github.com/Faultbox/midgard-bake/pkg/grf"
	"github.com/Faultbox/midgard-bake/pkg/math"
	"github.com/Faultbox/midgard-bake/pkg/rsm"
)

func cmdBake(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: rsmbake bake <model.rsm>...")
	}

	var errs error
	for _, p := range args {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if err := bakeModel(ctx, cfg, p, len(args) > 1); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}
	return errs
}

// bakeModel runs every configured clip of one model on its own scene.
// With several models, clip names are prefixed by the model name so their
// files do not collide.
func bakeModel(ctx context.Context, cfg *config.Config, p string, prefix bool) error {
	model, err := loadModel(p, cfg.Data.GRFPaths)
	if err != nil {
		return err
	}
	name := modelName(p)
	log := logger.Named("bake").With(zap.String("model", name))

	s, err := scene.New(model)
	if err != nil {
		return err
	}
	var hooks []bake.FrameHook
	for _, a := range cfg.Bake.Attachments {
		hook, err := scene.NewAttachment(s, a.Node, a.Target)
		if err != nil {
			return err
		}
		hooks = append(hooks, hook)
	}

	enc, err := cfg.Encoder()
	if err != nil {
		return err
	}

	clips := modelClips(cfg, model, name, prefix)
	if !model.HasAnimation() {
		log.Info("model has no keyframe animation; baking its static pose")
	}

	ctx, cancel := context.WithCancel(ctx)
	done, err := s.Start(ctx, cfg.Bake.TickInterval)
	if err != nil {
		cancel()
		return err
	}
	defer func() {
		cancel()
		<-done
	}()

	b := &bake.Baker{
		Host: s,
		Options: bake.Options{
			Basis:     cfg.Bake.Basis,
			AxisScale: math.Vec3From(cfg.Bake.AxisScale),
			Exclude:   cfg.Bake.Exclude,
		},
		Hooks:   hooks,
		Encoder: enc,
		Sink:    &output.Writer{Dirs: cfg.Output.Dirs, Extension: cfg.Output.Extension},
		Log:     log,
	}
	log.Info("baking model", zap.Int("clips", len(clips)), zap.Int("nodes", len(model.Nodes)))
	return b.BakeAll(ctx, clips)
}

func modelClips(cfg *config.Config, model *rsm.Model, name string, prefix bool) []bake.Clip {
	if len(cfg.Bake.Clips) == 0 {
		return []bake.Clip{scene.ModelClip(name, model, cfg.Bake.FrameRate)}
	}
	clips := make([]bake.Clip, 0, len(cfg.Bake.Clips))
	for _, c := range cfg.Bake.Clips {
		clipName := c.Name
		if prefix {
			clipName = name + "_" + c.Name
		}
		clips = append(clips, scene.NewClip(clipName, c.StartMs, c.EndMs, cfg.Bake.FrameRate))
	}
	return clips
}

// modelName returns the file name of p without its extension. GRF paths use
// backslashes.
func modelName(p string) string {
	base := path.Base(encoding.NormalizePath(p))
	return strings.TrimSuffix(base, path.Ext(base))
}

// loadModel reads an RSM file from disk, falling back to the GRF archives in
// order.
func loadModel(p string, archives []string) (*rsm.Model, error) {
	data, err := os.ReadFile(p)
	if err == nil {
		return rsm.Parse(data)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	for _, a := range archives {
		archive, err := grf.Open(a)
		if err != nil {
			logger.Warn("skipping archive", zap.String("grf", a), zap.Error(err))
			continue
		}
		data, err := archive.Read(p)
		archive.Close()
		if errors.Is(err, grf.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded model from archive", zap.String("grf", a), zap.String("model", p))
		return rsm.Parse(data)
	}
	return nil, fmt.Errorf("model %s: %w", p, fs.ErrNotExist)
}
