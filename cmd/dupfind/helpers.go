package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"dupfind/internal/config"
	"dupfind/internal/embed"
	"dupfind/internal/engine"
	"dupfind/internal/logging"
)

// SnapshotFile is the index snapshot filename inside the .dupfind directory.
const SnapshotFile = "index.zst"

func snapshotPath(root string) string {
	return filepath.Join(root, config.Dir, SnapshotFile)
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load(rootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(cfg.LoggerOptions())
}

// buildEngine creates a fresh engine from configuration.
func buildEngine(cfg *config.Config, log *logging.Logger) (*engine.Engine, error) {
	model, err := embed.NewModel(cfg.Embedder.Model, cfg.EmbedderOptions())
	if err != nil {
		return nil, err
	}
	return engine.New(cfg.EngineOptions(), model, log)
}

// loadEngine restores an engine from the project snapshot.
func loadEngine(cfg *config.Config, log *logging.Logger) (*engine.Engine, error) {
	f, err := os.Open(snapshotPath(rootDir))
	if err != nil {
		return nil, fmt.Errorf("no index snapshot at %s; run `dupfind scan` first: %w",
			snapshotPath(rootDir), err)
	}
	defer f.Close()
	return engine.Load(f, cfg.EngineOptions(), log)
}

// saveEngine writes the engine snapshot atomically via a temp file rename.
func saveEngine(e *engine.Engine) error {
	path := snapshotPath(rootDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "index-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := e.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// printOutput renders v as json or yaml, or falls back to the command's own
// human rendering.
func printOutput(v any, human func() string) error {
	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
	case "human":
		fmt.Print(human())
	default:
		return fmt.Errorf("unsupported format: %s", outputFormat)
	}
	return nil
}
