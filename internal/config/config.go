// Package config handles baker configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/Faultbox/midgard-bake/internal/bake"
	"github.com/Faultbox/midgard-bake/internal/codec"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid config")

// Config holds all baker settings.
type Config struct {
	Bake    BakeConfig    `yaml:"bake"`
	Output  OutputConfig  `yaml:"output"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// BakeConfig controls sampling.
type BakeConfig struct {
	FrameRate    float32            `yaml:"frame_rate"`
	Basis        string             `yaml:"basis"`      // world, rest or axis
	AxisScale    [3]float32         `yaml:"axis_scale"` // used by the axis basis
	Exclude      []string           `yaml:"exclude"`    // node names left out
	Attachments  []AttachmentConfig `yaml:"attachments"`
	Clips        []ClipConfig       `yaml:"clips"` // empty bakes the whole animation
	TickInterval time.Duration      `yaml:"tick_interval"`
}

// ClipConfig names a millisecond range of a model's animation.
type ClipConfig struct {
	Name    string `yaml:"name"`
	StartMs int32  `yaml:"start_ms"`
	EndMs   int32  `yaml:"end_ms"`
}

// AttachmentConfig pins Node to Target's world position and rotation.
type AttachmentConfig struct {
	Node   string `yaml:"node"`
	Target string `yaml:"target"`
}

// OutputConfig controls the written documents.
type OutputConfig struct {
	Format    string   `yaml:"format"`    // interned, inline or matrix
	Precision int      `yaml:"precision"` // decimals; negative for shortest form
	Rotation  string   `yaml:"rotation"`  // euler or quaternion
	Extension string   `yaml:"extension"`
	Dirs      []string `yaml:"dirs"`
}

// DataConfig holds game data file paths.
type DataConfig struct {
	GRFPaths []string `yaml:"grf_paths"` // archives searched for models not found on disk
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Bake: BakeConfig{
			FrameRate:    30,
			Basis:        bake.BasisRest,
			AxisScale:    [3]float32{1, 1, 1},
			TickInterval: time.Millisecond,
		},
		Output: OutputConfig{
			Format:    codec.FormatInterned.String(),
			Precision: codec.DefaultPrecision,
			Rotation:  bake.RotationEuler.String(),
			Extension: ".clj",
			Dirs:      []string{"animations"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Bake.FrameRate <= 0 {
		add("bake.frame_rate must be positive, got %v", c.Bake.FrameRate)
	}
	switch c.Bake.Basis {
	case bake.BasisWorld, bake.BasisRest, bake.BasisAxis:
	default:
		add("bake.basis %q", c.Bake.Basis)
	}
	if c.Bake.TickInterval <= 0 {
		add("bake.tick_interval must be positive, got %v", c.Bake.TickInterval)
	}

	names := make(map[string]bool, len(c.Bake.Clips))
	for i, clip := range c.Bake.Clips {
		if clip.Name == "" {
			add("bake.clips[%d] has no name", i)
		}
		if names[clip.Name] {
			add("bake.clips[%d] duplicates %q", i, clip.Name)
		}
		names[clip.Name] = true
		if clip.EndMs < clip.StartMs {
			add("bake.clips[%d] ends before it starts", i)
		}
	}
	for i, a := range c.Bake.Attachments {
		if a.Node == "" || a.Target == "" {
			add("bake.attachments[%d] needs node and target", i)
		}
	}

	if _, err := codec.ParseFormat(c.Output.Format); err != nil {
		add("output.format: %v", err)
	}
	if _, err := codec.ParseRotation(c.Output.Rotation); err != nil {
		add("output.rotation: %v", err)
	}
	if len(c.Output.Dirs) == 0 {
		add("output.dirs is empty")
	}

	return errs
}

// Encoder builds the codec encoder described by Output.
func (c *Config) Encoder() (*codec.Encoder, error) {
	format, err := codec.ParseFormat(c.Output.Format)
	if err != nil {
		return nil, err
	}
	rotation, err := codec.ParseRotation(c.Output.Rotation)
	if err != nil {
		return nil, err
	}
	enc := codec.NewEncoder(format)
	enc.Precision = c.Output.Precision
	enc.Rotation = rotation
	return enc, nil
}
