package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func reset(t *testing.T) {
	t.Cleanup(func() { Log = zap.NewNop() })
}

func TestDefaultIsNop(t *testing.T) {
	// Must not panic before Setup.
	Info("nothing", zap.Int("n", 1))
	Named("bake").Debug("nothing")
	Sync()
}

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
		wantErr   bool
	}{
		{"", false, true, false},
		{"debug", true, true, false},
		{"info", false, true, false},
		{"warn", false, false, false},
		{"loud", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			reset(t)
			var buf bytes.Buffer
			err := Setup(Options{Level: tt.level, Console: &buf})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Setup(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			Debug("debug-line")
			Info("info-line")
			out := buf.String()
			if got := strings.Contains(out, "debug-line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "info-line"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestSetup_FileOutput(t *testing.T) {
	reset(t)
	path := filepath.Join(t.TempDir(), "bake.log")

	cfg := DefaultFileConfig(path)
	cfg.Compress = false
	if err := Setup(Options{Level: "debug", File: cfg}); err != nil {
		t.Fatal(err)
	}

	Named("bake").Info("saved animation", zap.String("clip", "Walk"))
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, data)
	}
	if entry["msg"] != "saved animation" || entry["clip"] != "Walk" || entry["logger"] != "bake" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestLogRotation(t *testing.T) {
	reset(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "bake.log")

	// 1MB is the smallest size lumberjack accepts.
	err := Setup(Options{Level: "info", File: FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 2}})
	if err != nil {
		t.Fatal(err)
	}

	long := strings.Repeat("x", 200)
	for i := 0; i < 8000; i++ {
		Info("frame", zap.Int("n", i), zap.String("pad", long))
	}
	Sync()

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var logs []string
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "bake") {
			logs = append(logs, f.Name())
		}
	}
	if len(logs) < 2 {
		t.Errorf("expected a rotated file, got %v", logs)
	}
}
