package config

import (
	"os"
	"path/filepath"
	"testing"

	"dupfind/internal/errors"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Index.Tables != 8 || cfg.Index.Bits != 16 || cfg.Index.Dimension != 384 {
		t.Errorf("unexpected default geometry: %+v", cfg.Index)
	}
	if cfg.Engine.Type1 != 0.99 || cfg.Engine.Type4 != 0.70 {
		t.Errorf("unexpected default thresholds: %+v", cfg.Engine)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	if cfg.Index != want.Index || cfg.Engine != want.Engine {
		t.Errorf("missing config should yield defaults, got %+v", cfg)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.Engine.MinSimilarity = 0.75
	cfg.Embedder.Language = "go"
	if err := cfg.Save(root); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Engine.MinSimilarity != 0.75 {
		t.Errorf("MinSimilarity = %v, want 0.75", loaded.Engine.MinSimilarity)
	}
	if loaded.Embedder.Language != "go" {
		t.Errorf("Language = %q, want go", loaded.Embedder.Language)
	}
}

func TestLoadMalformedConfig(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(root); !errors.HasCode(err, errors.ConfigInvalid) {
		t.Errorf("err = %v, want CONFIG_INVALID", err)
	}
}

func TestTomlOverride(t *testing.T) {
	root := t.TempDir()
	override := `
[engine]
min_similarity = 0.6
min_tokens = 20

[logging]
level = "debug"
`
	if err := os.WriteFile(filepath.Join(root, OverrideFile), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.MinSimilarity != 0.6 {
		t.Errorf("MinSimilarity = %v, want 0.6", cfg.Engine.MinSimilarity)
	}
	if cfg.Engine.MinTokens != 20 {
		t.Errorf("MinTokens = %d, want 20", cfg.Engine.MinTokens)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched knobs keep their defaults.
	if cfg.Engine.MaxTokens != DefaultConfig().Engine.MaxTokens {
		t.Errorf("MaxTokens changed unexpectedly: %d", cfg.Engine.MaxTokens)
	}
}

func TestValidateRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bits too large", func(c *Config) { c.Index.Bits = 65 }},
		{"bits zero", func(c *Config) { c.Index.Bits = 0 }},
		{"no tables", func(c *Config) { c.Index.Tables = 0 }},
		{"negative dimension", func(c *Config) { c.Index.Dimension = -1 }},
		{"inverted token window", func(c *Config) { c.Engine.MinTokens = 100; c.Engine.MaxTokens = 10 }},
		{"similarity out of range", func(c *Config) { c.Engine.MinSimilarity = 1.5 }},
		{"non-descending thresholds", func(c *Config) { c.Engine.Type2 = 0.999 }},
		{"wrong version", func(c *Config) { c.Version = 99 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.HasCode(err, errors.ConfigInvalid) {
				t.Errorf("err = %v, want CONFIG_INVALID", err)
			}
		})
	}
}

func TestEngineOptionsConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Index.Dimension = 128

	opts := cfg.EngineOptions()
	if opts.Index.Dimension != 128 {
		t.Errorf("Index.Dimension = %d, want 128", opts.Index.Dimension)
	}
	emb := cfg.EmbedderOptions()
	if emb.Dimension != 128 {
		t.Errorf("embedder dimension must follow index dimension, got %d", emb.Dimension)
	}
}
