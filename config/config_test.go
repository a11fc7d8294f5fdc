package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caio-sobreiro/dicomjson/types"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected default listen addr :8080, got %s", cfg.ListenAddr)
	}
	if cfg.ImageRendering != types.RenderingWADOURI {
		t.Errorf("expected default rendering wadouri, got %s", cfg.ImageRendering)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("expected default fetch timeout 30s, got %s", cfg.FetchTimeout)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("expected default concurrency 4, got %d", cfg.Concurrency)
	}
	if !cfg.IsDev() {
		t.Error("expected development by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("DICOMJSON_LISTEN_ADDR", ":9000")
	t.Setenv("DICOMJSON_WADO_ROOT", "https://pacs/dicom-web")
	t.Setenv("DICOMJSON_IMAGE_RENDERING", "wadors")
	t.Setenv("DICOMJSON_UPLOAD_TIMEOUT", "5s")
	t.Setenv("DICOMJSON_REQUIRE_AUTH", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %s, want :9000", cfg.ListenAddr)
	}
	if cfg.UploadTimeout != 5*time.Second {
		t.Errorf("UploadTimeout = %s, want 5s", cfg.UploadTimeout)
	}
	if !cfg.RequireAuth {
		t.Error("RequireAuth = false, want true")
	}

	src := cfg.Source()
	if src.WadoRoot != "https://pacs/dicom-web" || src.ImageRendering != types.RenderingWADORS {
		t.Errorf("Source() = %+v", src)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dicomjson.yaml")
	content := strings.Join([]string{
		"source_url: https://host/dicoms/b/d/st/meta.json",
		"wado_uri_root: https://pacs/wado",
		"concurrency: 8",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DICOMJSON_CONCURRENCY", "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SourceURL != "https://host/dicoms/b/d/st/meta.json" {
		t.Errorf("SourceURL = %q", cfg.SourceURL)
	}
	if cfg.WadoURIRoot != "https://pacs/wado" {
		t.Errorf("WadoURIRoot = %q", cfg.WadoURIRoot)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("Concurrency = %d, environment should win over file", cfg.Concurrency)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ImageRendering:     types.RenderingWADOURI,
			ThumbnailRendering: types.RenderingWADOURI,
			FetchTimeout:       time.Second,
			UploadTimeout:      time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown rendering", func(c *Config) { c.ImageRendering = "jpeg" }, true},
		{"unknown thumbnail rendering", func(c *Config) { c.ThumbnailRendering = "" }, true},
		{"wadors without root", func(c *Config) { c.ImageRendering = types.RenderingWADORS }, true},
		{"wadors with root", func(c *Config) {
			c.ImageRendering = types.RenderingWADORS
			c.WadoRoot = "https://pacs"
		}, false},
		{"zero fetch timeout", func(c *Config) { c.FetchTimeout = 0 }, true},
		{"zero upload timeout", func(c *Config) { c.UploadTimeout = 0 }, true},
		{"auth without secret", func(c *Config) { c.RequireAuth = true }, true},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"auth with secret", func(c *Config) {
			c.RequireAuth = true
			c.JWTSecret = strings.Repeat("k", 32)
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
