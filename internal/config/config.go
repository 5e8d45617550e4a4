package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"dupfind/internal/embed"
	"dupfind/internal/engine"
	"dupfind/internal/errors"
	"dupfind/internal/logging"
	"dupfind/internal/lsh"
)

// ConfigVersion is the current config schema version.
const ConfigVersion = 1

// Dir is the project-local directory holding config, snapshot, and the
// findings database.
const Dir = ".dupfind"

// OverrideFile is the optional project-local override, decoded after the
// main config.
const OverrideFile = ".dupfind.toml"

// Config is the complete dupfind configuration.
type Config struct {
	Version  int            `json:"version" mapstructure:"version"`
	Index    IndexConfig    `json:"index" mapstructure:"index"`
	Embedder EmbedderConfig `json:"embedder" mapstructure:"embedder"`
	Engine   EngineConfig   `json:"engine" mapstructure:"engine"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// IndexConfig holds LSH index geometry. Changing tables, bits, or dimension
// invalidates every stored hash and requires a full rescan.
type IndexConfig struct {
	Tables        int    `json:"tables" mapstructure:"tables"`
	Bits          int    `json:"bits" mapstructure:"bits"`
	Dimension     int    `json:"dimension" mapstructure:"dimension"`
	MaxBucketSize int    `json:"maxBucketSize" mapstructure:"maxBucketSize"`
	Seed          uint64 `json:"seed" mapstructure:"seed"`
	MultiProbe    bool   `json:"multiProbe" mapstructure:"multiProbe"`
	NumProbes     int    `json:"numProbes" mapstructure:"numProbes"`
	MaxCandidates int    `json:"maxCandidates" mapstructure:"maxCandidates"`
}

// EmbedderConfig holds TF-IDF embedder parameters.
type EmbedderConfig struct {
	Model        string `json:"model" mapstructure:"model"`
	MaxVocabSize int    `json:"maxVocabSize" mapstructure:"maxVocabSize"`
	NGramSize    int    `json:"ngramSize" mapstructure:"ngramSize"`
	SublinearTF  bool   `json:"sublinearTf" mapstructure:"sublinearTf"`
	SmoothIDF    bool   `json:"smoothIdf" mapstructure:"smoothIdf"`
	Language     string `json:"language" mapstructure:"language"`
	Seed         uint64 `json:"seed" mapstructure:"seed"`
}

// EngineConfig holds clone-detection behavior.
type EngineConfig struct {
	MinTokens     int     `json:"minTokens" mapstructure:"minTokens"`
	MaxTokens     int     `json:"maxTokens" mapstructure:"maxTokens"`
	MinSimilarity float64 `json:"minSimilarity" mapstructure:"minSimilarity"`
	Type1         float64 `json:"type1" mapstructure:"type1"`
	Type2         float64 `json:"type2" mapstructure:"type2"`
	Type3         float64 `json:"type3" mapstructure:"type3"`
	Type4         float64 `json:"type4" mapstructure:"type4"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	idx := lsh.DefaultOptions()
	emb := embed.DefaultConfig()
	eng := engine.DefaultOptions()
	return &Config{
		Version: ConfigVersion,
		Index: IndexConfig{
			Tables:        idx.Tables,
			Bits:          idx.Bits,
			Dimension:     idx.Dimension,
			MaxBucketSize: idx.MaxBucketSize,
			Seed:          idx.Seed,
			MultiProbe:    eng.MultiProbe,
			NumProbes:     eng.NumProbes,
			MaxCandidates: eng.MaxCandidates,
		},
		Embedder: EmbedderConfig{
			Model:        "tfidf",
			MaxVocabSize: emb.MaxVocabSize,
			NGramSize:    emb.NGramSize,
			SublinearTF:  emb.SublinearTF,
			SmoothIDF:    emb.SmoothIDF,
			Seed:         emb.Seed,
		},
		Engine: EngineConfig{
			MinTokens:     eng.MinTokens,
			MaxTokens:     eng.MaxTokens,
			MinSimilarity: eng.MinSimilarity,
			Type1:         eng.Thresholds.Type1,
			Type2:         eng.Thresholds.Type2,
			Type3:         eng.Thresholds.Type3,
			Type4:         eng.Thresholds.Type4,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration from <root>/.dupfind/config.json, falling back to
// defaults when the file is absent, then applies the optional
// <root>/.dupfind.toml override.
func Load(root string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, Dir))

	cfg := DefaultConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(errors.ConfigInvalid, "failed to read config", err)
		}
	} else if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid, "failed to parse config", err)
	}

	if err := cfg.applyOverride(filepath.Join(root, OverrideFile)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Override is the subset of knobs a project-local .dupfind.toml may change.
// Index geometry is deliberately absent: it cannot be overridden per-project
// without a rebuild.
type Override struct {
	Engine struct {
		MinTokens     *int     `toml:"min_tokens"`
		MaxTokens     *int     `toml:"max_tokens"`
		MinSimilarity *float64 `toml:"min_similarity"`
	} `toml:"engine"`
	Embedder struct {
		Language *string `toml:"language"`
	} `toml:"embedder"`
	Logging struct {
		Format *string `toml:"format"`
		Level  *string `toml:"level"`
	} `toml:"logging"`
}

func (c *Config) applyOverride(path string) error {
	var o Override
	if _, err := toml.DecodeFile(path, &o); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(errors.ConfigInvalid, "failed to parse "+OverrideFile, err)
	}

	if o.Engine.MinTokens != nil {
		c.Engine.MinTokens = *o.Engine.MinTokens
	}
	if o.Engine.MaxTokens != nil {
		c.Engine.MaxTokens = *o.Engine.MaxTokens
	}
	if o.Engine.MinSimilarity != nil {
		c.Engine.MinSimilarity = *o.Engine.MinSimilarity
	}
	if o.Embedder.Language != nil {
		c.Embedder.Language = *o.Embedder.Language
	}
	if o.Logging.Format != nil {
		c.Logging.Format = *o.Logging.Format
	}
	if o.Logging.Level != nil {
		c.Logging.Level = *o.Logging.Level
	}
	return nil
}

// Save writes the configuration to <root>/.dupfind/config.json.
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.Internal, "failed to create "+dir, err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(errors.SerializationFailed, "failed to encode config", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// Validate checks configuration consistency. Index geometry violations are
// fatal here, before any engine state exists.
func (c *Config) Validate() error {
	if c.Version != ConfigVersion {
		return errors.Newf(errors.ConfigInvalid, "unsupported config version %d", c.Version)
	}
	if c.Index.Bits < 1 || c.Index.Bits > 64 {
		return errors.Newf(errors.ConfigInvalid, "index bits must be in 1..64, got %d", c.Index.Bits)
	}
	if c.Index.Tables <= 0 {
		return errors.Newf(errors.ConfigInvalid, "index tables must be positive, got %d", c.Index.Tables)
	}
	if c.Index.Dimension <= 0 {
		return errors.Newf(errors.ConfigInvalid, "index dimension must be positive, got %d", c.Index.Dimension)
	}
	if c.Embedder.MaxVocabSize <= 0 {
		return errors.Newf(errors.ConfigInvalid, "embedder maxVocabSize must be positive, got %d", c.Embedder.MaxVocabSize)
	}
	if c.Engine.MinTokens < 0 || (c.Engine.MaxTokens > 0 && c.Engine.MaxTokens < c.Engine.MinTokens) {
		return errors.New(errors.ConfigInvalid, "engine token window is inverted")
	}
	if c.Engine.MinSimilarity < 0 || c.Engine.MinSimilarity > 1 {
		return errors.Newf(errors.ConfigInvalid, "minSimilarity must be in [0, 1], got %v", c.Engine.MinSimilarity)
	}
	return c.EngineOptions().Thresholds.Validate()
}

// IndexOptions converts to lsh.Options.
func (c *Config) IndexOptions() lsh.Options {
	return lsh.Options{
		Tables:        c.Index.Tables,
		Bits:          c.Index.Bits,
		Dimension:     c.Index.Dimension,
		MaxBucketSize: c.Index.MaxBucketSize,
		Seed:          c.Index.Seed,
	}
}

// EmbedderOptions converts to embed.Config. The embedder dimension always
// follows the index dimension.
func (c *Config) EmbedderOptions() embed.Config {
	return embed.Config{
		Dimension:    c.Index.Dimension,
		MaxVocabSize: c.Embedder.MaxVocabSize,
		NGramSize:    c.Embedder.NGramSize,
		SublinearTF:  c.Embedder.SublinearTF,
		SmoothIDF:    c.Embedder.SmoothIDF,
		Language:     c.Embedder.Language,
		Seed:         c.Embedder.Seed,
	}
}

// EngineOptions converts to engine.Options.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		Index:         c.IndexOptions(),
		MinTokens:     c.Engine.MinTokens,
		MaxTokens:     c.Engine.MaxTokens,
		MinSimilarity: c.Engine.MinSimilarity,
		Thresholds: engine.Thresholds{
			Type1: c.Engine.Type1,
			Type2: c.Engine.Type2,
			Type3: c.Engine.Type3,
			Type4: c.Engine.Type4,
		},
		MultiProbe:    c.Index.MultiProbe,
		NumProbes:     c.Index.NumProbes,
		MaxCandidates: c.Index.MaxCandidates,
	}
}

// LoggerOptions converts to logging.Config.
func (c *Config) LoggerOptions() logging.Config {
	return logging.Config{
		Level:  logging.Level(c.Logging.Level),
		Format: logging.Format(c.Logging.Format),
	}
}
