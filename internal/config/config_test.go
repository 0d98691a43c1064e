package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Bake.FrameRate != 30 {
		t.Errorf("expected frame rate 30, got %v", cfg.Bake.FrameRate)
	}
	if cfg.Bake.Basis != "rest" {
		t.Errorf("expected basis 'rest', got %s", cfg.Bake.Basis)
	}
	if cfg.Bake.AxisScale != [3]float32{1, 1, 1} {
		t.Errorf("expected unit axis scale, got %v", cfg.Bake.AxisScale)
	}
	if cfg.Output.Format != "interned" || cfg.Output.Rotation != "euler" {
		t.Errorf("unexpected output defaults %+v", cfg.Output)
	}
	if cfg.Output.Precision != 3 || cfg.Output.Extension != ".clj" {
		t.Errorf("unexpected output defaults %+v", cfg.Output)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.LogFile != "" {
		t.Errorf("unexpected logging defaults %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "rsmbake.yaml")

	yamlContent := `
bake:
  frame_rate: 60
  basis: world
  exclude: [shadow, "날개"]
  tick_interval: 5ms
  attachments:
    - node: flag
      target: hand
  clips:
    - name: Walk
      start_ms: 0
      end_ms: 800
    - name: Attack
      start_ms: 800
      end_ms: 1400

output:
  format: matrix
  precision: -1
  rotation: quaternion
  dirs: [out/a, out/b]

data:
  grf_paths: [data.grf, rdata.grf]

logging:
  level: debug
  log_file: bake.log
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Bake.FrameRate != 60 || cfg.Bake.Basis != "world" {
		t.Errorf("unexpected bake section %+v", cfg.Bake)
	}
	if len(cfg.Bake.Exclude) != 2 || cfg.Bake.Exclude[1] != "날개" {
		t.Errorf("unexpected exclude %v", cfg.Bake.Exclude)
	}
	if cfg.Bake.TickInterval != 5*time.Millisecond {
		t.Errorf("expected tick 5ms, got %v", cfg.Bake.TickInterval)
	}
	if len(cfg.Bake.Attachments) != 1 || cfg.Bake.Attachments[0] != (AttachmentConfig{Node: "flag", Target: "hand"}) {
		t.Errorf("unexpected attachments %v", cfg.Bake.Attachments)
	}
	if len(cfg.Bake.Clips) != 2 || cfg.Bake.Clips[1] != (ClipConfig{Name: "Attack", StartMs: 800, EndMs: 1400}) {
		t.Errorf("unexpected clips %v", cfg.Bake.Clips)
	}
	// Keys missing from the file keep their defaults.
	if cfg.Bake.AxisScale != [3]float32{1, 1, 1} || cfg.Output.Extension != ".clj" {
		t.Error("defaults were lost while merging")
	}
	if cfg.Output.Format != "matrix" || cfg.Output.Precision != -1 || cfg.Output.Rotation != "quaternion" {
		t.Errorf("unexpected output section %+v", cfg.Output)
	}
	if len(cfg.Output.Dirs) != 2 || len(cfg.Data.GRFPaths) != 2 {
		t.Errorf("unexpected paths %v %v", cfg.Output.Dirs, cfg.Data.GRFPaths)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "bake.log" {
		t.Errorf("unexpected logging section %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad syntax", "bake:\n  frame_rate: not a number\n  invalid syntax here\n"},
		{"unknown key", "bake:\n  framerate: 24\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if err := loadFromFile(Default(), path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Errorf("empty file should be accepted: %v", err)
	}
	if cfg.Bake.FrameRate != 30 {
		t.Error("empty file should keep defaults")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/rsmbake.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(FileName, []byte("bake:\n  frame_rate: 12\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find the config in the current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "debug",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "out",
			args: []string{"-out", "a, b,,c"},
			verify: func(t *testing.T, cfg *Config) {
				want := []string{"a", "b", "c"}
				if len(cfg.Output.Dirs) != 3 {
					t.Fatalf("expected %v, got %v", want, cfg.Output.Dirs)
				}
				for i := range want {
					if cfg.Output.Dirs[i] != want[i] {
						t.Errorf("expected %v, got %v", want, cfg.Output.Dirs)
					}
				}
			},
		},
		{
			name: "format fps basis",
			args: []string{"-format", "inline", "-fps", "24", "-basis", "axis"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Output.Format != "inline" || cfg.Bake.FrameRate != 24 || cfg.Bake.Basis != "axis" {
					t.Errorf("flags not applied: %+v %+v", cfg.Output, cfg.Bake)
				}
			},
		},
		{
			name: "grf goes first",
			args: []string{"-grf", "custom.grf"},
			verify: func(t *testing.T, cfg *Config) {
				if len(cfg.Data.GRFPaths) != 2 || cfg.Data.GRFPaths[0] != "custom.grf" {
					t.Errorf("unexpected GRF paths %v", cfg.Data.GRFPaths)
				}
			},
		},
		{
			name: "no flags",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Bake.FrameRate != 30 || len(cfg.Output.Dirs) != 1 {
					t.Error("defaults changed without flags")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			flags := RegisterFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatal(err)
			}

			cfg := Default()
			cfg.Data.GRFPaths = []string{"data.grf"}
			flags.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "rsmbake.yaml")
	yamlContent := `
bake:
  frame_rate: 12
  basis: world
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(&Flags{Config: configPath, FPS: 48})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Frame rate comes from the flag, basis from the file.
	if cfg.Bake.FrameRate != 48 {
		t.Errorf("expected frame rate 48 from flag, got %v", cfg.Bake.FrameRate)
	}
	if cfg.Bake.Basis != "world" {
		t.Errorf("expected basis 'world' from file, got %s", cfg.Bake.Basis)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := Load(&Flags{Basis: "bind"})
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"frame rate", func(c *Config) { c.Bake.FrameRate = 0 }},
		{"basis", func(c *Config) { c.Bake.Basis = "bind" }},
		{"tick", func(c *Config) { c.Bake.TickInterval = 0 }},
		{"clip name", func(c *Config) { c.Bake.Clips = []ClipConfig{{EndMs: 10}} }},
		{"clip duplicate", func(c *Config) {
			c.Bake.Clips = []ClipConfig{{Name: "a", EndMs: 1}, {Name: "a", EndMs: 2}}
		}},
		{"clip range", func(c *Config) { c.Bake.Clips = []ClipConfig{{Name: "a", StartMs: 5, EndMs: 1}} }},
		{"attachment", func(c *Config) { c.Bake.Attachments = []AttachmentConfig{{Node: "a"}} }},
		{"format", func(c *Config) { c.Output.Format = "json" }},
		{"rotation", func(c *Config) { c.Output.Rotation = "matrix" }},
		{"dirs", func(c *Config) { c.Output.Dirs = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestEncoder(t *testing.T) {
	cfg := Default()
	cfg.Output.Format = "inline"
	cfg.Output.Precision = 5
	cfg.Output.Rotation = "quaternion"

	enc, err := cfg.Encoder()
	if err != nil {
		t.Fatal(err)
	}
	if enc.Format.String() != "inline" || enc.Precision != 5 || enc.Rotation.String() != "quaternion" {
		t.Errorf("unexpected encoder %+v", enc)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rsmbake.yaml")

	cfg := Default()
	cfg.Bake.Clips = []ClipConfig{{Name: "Idle", StartMs: 0, EndMs: 500}}
	cfg.Bake.TickInterval = 2 * time.Millisecond
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(loaded.Bake.Clips) != 1 || loaded.Bake.Clips[0].Name != "Idle" {
		t.Errorf("clips lost: %v", loaded.Bake.Clips)
	}
	if loaded.Bake.TickInterval != 2*time.Millisecond {
		t.Errorf("tick interval lost: %v", loaded.Bake.TickInterval)
	}
}

func TestSave(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if dir := ConfigDir(); filepath.Base(dir) != "midgard-bake" {
		t.Skip("config dir is not XDG-based on this platform")
	}

	path, err := Default().Save()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("saved config missing: %v", err)
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
