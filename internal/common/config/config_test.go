package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_defaults(t *testing.T) {
	for _, k := range []string{"PORT", "ENV", "READ_TIMEOUT", "PUBLIC_BASE_URL", "CORS_ORIGINS", "DEFAULT_SELECTOR"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "3000" || cfg.Environment != "development" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.ReadTimeout != 10*time.Second {
		t.Fatalf("expected 10s read timeout, got %v", cfg.ReadTimeout)
	}
	if cfg.PublicBaseURL != "http://localhost:3000" {
		t.Fatalf("expected derived base url, got %q", cfg.PublicBaseURL)
	}
	if cfg.DefaultSelector != ".room-group, .room, .label" {
		t.Fatalf("unexpected selector %q", cfg.DefaultSelector)
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Fatalf("expected no cors origins, got %v", cfg.CORSOrigins)
	}
}

func TestLoad_overrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "3s")
	t.Setenv("MAPS_DIR", "/srv/maps")
	t.Setenv("PUBLIC_BASE_URL", "https://maps.campus.edu")
	t.Setenv("CORS_ORIGINS", "https://a.edu,https://b.edu")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8088" || cfg.ReadTimeout != 3*time.Second || cfg.MapsDir != "/srv/maps" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.PublicBaseURL != "https://maps.campus.edu" {
		t.Fatalf("expected explicit base url, got %q", cfg.PublicBaseURL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.edu" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestLoad_invalidDuration(t *testing.T) {
	t.Setenv("WRITE_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParsePresets(t *testing.T) {
	data := []byte(`
maps:
  - name: library
    src: /maps/library.svg
    selector: ".room-group"
    viewport:
      max_scale: 6
      disable_double_click_zoom: true
  - name: campus
    src: /maps/campus.svg
`)
	presets, err := ParsePresets(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("expected 2 presets, got %d", len(presets))
	}
	lib := presets["library"]
	if lib.Src != "/maps/library.svg" || lib.Selector != ".room-group" {
		t.Fatalf("unexpected preset %+v", lib)
	}
	if lib.Viewport.MaxScale != 6 || !lib.Viewport.DisableDoubleClickZoom {
		t.Fatalf("unexpected viewport config %+v", lib.Viewport)
	}
}

func TestParsePresets_rejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing name": "maps:\n  - src: /a.svg\n",
		"missing src":  "maps:\n  - name: a\n",
		"duplicate":    "maps:\n  - name: a\n    src: /a.svg\n  - name: a\n    src: /b.svg\n",
		"bad viewport": "maps:\n  - name: a\n    src: /a.svg\n    viewport:\n      min_scale: 5\n      max_scale: 2\n",
		"bad yaml":     "maps: [",
	}
	for name, data := range cases {
		if _, err := ParsePresets([]byte(data)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadPresets_missingFileIsEmpty(t *testing.T) {
	presets, err := LoadPresets(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil || len(presets) != 0 {
		t.Fatalf("expected empty presets, got %v (%v)", presets, err)
	}

	path := filepath.Join(t.TempDir(), "maps.yaml")
	if err := os.WriteFile(path, []byte("maps:\n  - name: a\n    src: /a.svg\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	presets, err = LoadPresets(path)
	if err != nil || presets["a"].Src != "/a.svg" {
		t.Fatalf("expected preset loaded, got %v (%v)", presets, err)
	}
}
