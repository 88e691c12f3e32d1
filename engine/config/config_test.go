package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/lumen/engine/core"
)

func TestParseOverridesDefaults(t *testing.T) {
	data := []byte(`
[log]
level = "debug"

[renderer]
max_texture_size = 4096
unsupported_formats = ["R32G32B32A32_SFloat"]
ray_tracing = true

[screen]
width = 800
height = 600
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Renderer.MaxTextureSize != 4096 {
		t.Errorf("max_texture_size = %d, want 4096", cfg.Renderer.MaxTextureSize)
	}
	if !cfg.Renderer.RayTracing {
		t.Error("ray_tracing should be enabled")
	}
	if len(cfg.Renderer.UnsupportedFormats) != 1 {
		t.Errorf("unsupported_formats = %v", cfg.Renderer.UnsupportedFormats)
	}
	// Untouched values keep their defaults.
	if cfg.Renderer.Backend != "software" || cfg.FrameTiming.HistorySize != 120 {
		t.Errorf("defaults lost: backend=%q history=%d", cfg.Renderer.Backend, cfg.FrameTiming.HistorySize)
	}
	if cfg.Screen.Width != 800 || cfg.Screen.Height != 600 {
		t.Errorf("screen = %dx%d, want 800x600", cfg.Screen.Width, cfg.Screen.Height)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown backend", "[renderer]\nbackend = \"metal\""},
		{"sample count", "[renderer]\nmax_sample_count = 3"},
		{"screen size", "[screen]\nwidth = 0"},
		{"history", "[frame_timing]\nhistory_size = 0"},
		{"probe ambient mismatch", "[light_probes]\npositions = [[0.0, 0.0, 0.0]]\nambient = [[1.0, 1.0, 1.0], [0.0, 0.0, 0.0]]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); !errors.Is(err, core.ErrInvalidArgument) {
				t.Errorf("Parse() = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte("[renderer\nbackend=")); err == nil {
		t.Error("Parse() of malformed TOML should fail")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumen.toml")
	cfg := Default()
	cfg.Screen.Title = "round trip"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if loaded.Screen.Title != "round trip" {
		t.Errorf("title = %q", loaded.Screen.Title)
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumen.toml")
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"info\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { reloaded <- c })
	if err != nil {
		t.Fatalf("NewWatcher() = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-reloaded:
			if c.Log.Level == "warn" {
				return
			}
		case <-deadline:
			t.Fatal("watcher did not reload the configuration")
		}
	}
}

func TestWatcherCloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumen.toml")
	w, err := NewWatcher(path, func(*Config) {})
	if err != nil {
		t.Fatalf("NewWatcher() = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close() = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}
