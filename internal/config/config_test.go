package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, src string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	writeConfig(t, path, `
[engine]
tick_rate = "20ms"
workers = 3

[grid]
cell_count_x = 4

[logging]
format = "json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.TickRate != 20*time.Millisecond || cfg.Engine.Workers != 3 {
		t.Errorf("engine section not applied: %+v", cfg.Engine)
	}
	if cfg.Engine.RenderRate != time.Second/60 || cfg.Engine.Scene != "scenes/demo.yaml" {
		t.Errorf("engine defaults lost: %+v", cfg.Engine)
	}
	if cfg.Grid.CellCountX != 4 || cfg.Grid.CellCountY != 16 || cfg.Grid.CellSizeX != 64 {
		t.Errorf("grid merge wrong: %+v", cfg.Grid)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Errorf("logging merge wrong: %+v", cfg.Logging)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"negative tick", "[engine]\ntick_rate = \"-1s\""},
		{"no workers", "[engine]\nworkers = 0"},
		{"bad profile", "[engine]\nprofile = \"block\""},
		{"empty grid", "[grid]\ncell_count_y = 0"},
		{"flat cells", "[grid]\ncell_size_x = 0.0"},
		{"bad format", "[logging]\nformat = \"xml\""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "engine.toml")
			writeConfig(t, path, tc.src)
			if _, err := Load(path); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatalf("expected read error")
	}
	path := filepath.Join(dir, "broken.toml")
	writeConfig(t, path, "[engine")
	if _, err := Load(path); err == nil || errors.Is(err, ErrInvalid) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	writeConfig(t, path, "[engine]\nworkers = 1")
	w, err := Watch(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	// an invalid write is skipped, the following valid one delivered
	writeConfig(t, path, "[engine]\nworkers = 0")
	time.Sleep(3 * debounce)
	writeConfig(t, path, "[engine]\nworkers = 7")

	select {
	case cfg := <-w.Updates:
		if cfg.Engine.Workers != 7 {
			t.Fatalf("expected workers = 7, got %d", cfg.Engine.Workers)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no reload delivered")
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	for range w.Updates {
	}
}
