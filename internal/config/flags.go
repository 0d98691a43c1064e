package config

import (
	"flag"
	"strings"
)

// Flags holds command-line overrides. Zero values leave the config alone.
type Flags struct {
	Config string
	Debug  bool
	Out    string
	Format string
	FPS    float64
	Basis  string
	GRF    string
}

// RegisterFlags defines the config flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Out, "out", "", "Output directories, comma separated")
	fs.StringVar(&f.Format, "format", "", "Output format: interned, inline or matrix")
	fs.Float64Var(&f.FPS, "fps", 0, "Sampling frame rate")
	fs.StringVar(&f.Basis, "basis", "", "Transform basis: world, rest or axis")
	fs.StringVar(&f.GRF, "grf", "", "GRF archive to load models from")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Out != "" {
		var dirs []string
		for _, d := range strings.Split(f.Out, ",") {
			if d = strings.TrimSpace(d); d != "" {
				dirs = append(dirs, d)
			}
		}
		cfg.Output.Dirs = dirs
	}
	if f.Format != "" {
		cfg.Output.Format = f.Format
	}
	if f.FPS > 0 {
		cfg.Bake.FrameRate = float32(f.FPS)
	}
	if f.Basis != "" {
		cfg.Bake.Basis = f.Basis
	}
	if f.GRF != "" {
		// An explicit archive is searched before the configured ones.
		cfg.Data.GRFPaths = append([]string{f.GRF}, cfg.Data.GRFPaths...)
	}
}
