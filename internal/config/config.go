package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// GloveConfig locates and describes the pretrained embedding file.
type GloveConfig struct {
	MatrixResourceName string `yaml:"matrixResourceName" env:"GLOVE_MATRIX_RESOURCE"`
	// Dimension is the expected vector size; 0 takes it from the first record.
	Dimension int `yaml:"dimension" env:"GLOVE_DIMENSION"`
	// Seed drives the unknown-word vector; 0 picks a random seed per run.
	Seed   uint64 `yaml:"seed" env:"GLOVE_SEED"`
	Header string `yaml:"header" env:"GLOVE_HEADER"`
}

// TaggerConfig holds the sequence tagger decoding options.
type TaggerConfig struct {
	Decoding     string `yaml:"decoding"`
	Nonlinearity string `yaml:"nonlinearity"`
}

// VectorStoreConfig selects and configures the neighbour index.
type VectorStoreConfig struct {
	Type   string       `yaml:"type" env:"VECTOR_STORE"`
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url" env:"QDRANT_URL"`
	APIKey      string `yaml:"api_key" env:"QDRANT_API_KEY"`
	Collection  string `yaml:"collection"`
	BatchSize   int    `yaml:"batch_size"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// SearchConfig tunes nearest-neighbour queries.
type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Glove       GloveConfig       `yaml:"glove"`
	Tagger      TaggerConfig      `yaml:"tagger"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Search      SearchConfig      `yaml:"search"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, it
// starts from defaults. Environment variables override file values.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/glove/config.yaml.
// If neither exists, it writes defaults to ~/.config/glove/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err != nil {
		if err := Save(userPath, defaultConfig()); err != nil {
			return nil, "", err
		}
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// GetString resolves a dotted key such as "glove.matrixResourceName" against
// the YAML layout of the config.
func (c *AppConfig) GetString(key string) (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return "", err
	}
	var node any = tree
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return "", fmt.Errorf("config key %q not found", key)
		}
		if node, ok = m[part]; !ok {
			return "", fmt.Errorf("config key %q not found", key)
		}
	}
	switch v := node.(type) {
	case map[string]any, []any:
		return "", fmt.Errorf("config key %q is not a scalar", key)
	case nil:
		return "", nil
	default:
		return fmt.Sprint(v), nil
	}
}

// Validate rejects unknown option spellings.
func (c *AppConfig) Validate() error {
	switch c.Glove.Header {
	case "first-line", "any-two-tokens":
	default:
		return fmt.Errorf("glove.header: unknown mode %q", c.Glove.Header)
	}
	if c.Glove.Dimension < 0 {
		return fmt.Errorf("glove.dimension: must not be negative")
	}
	switch c.Tagger.Decoding {
	case "viterbi", "greedy":
	default:
		return fmt.Errorf("tagger.decoding: unknown type %q", c.Tagger.Decoding)
	}
	switch c.Tagger.Nonlinearity {
	case "", "relu", "tanh":
	default:
		return fmt.Errorf("tagger.nonlinearity: unknown %q", c.Tagger.Nonlinearity)
	}
	switch c.VectorStore.Type {
	case "memory":
	case "qdrant":
		if c.VectorStore.Qdrant.URL == "" {
			return errors.New("vector_store.qdrant.url is required for the qdrant store")
		}
	default:
		return fmt.Errorf("vector_store.type: unknown %q", c.VectorStore.Type)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "glove", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Glove:       GloveConfig{MatrixResourceName: "glove.840B.300d.txt", Header: "first-line"},
		Tagger:      TaggerConfig{Decoding: "viterbi"},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Search:      SearchConfig{TopK: 10},
		Log:         LogConfig{Level: "info"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Glove.Header == "" {
		cfg.Glove.Header = "first-line"
	}
	if cfg.Tagger.Decoding == "" {
		cfg.Tagger.Decoding = "viterbi"
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.Search.TopK <= 0 {
		cfg.Search.TopK = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.VectorStore.Type == "qdrant" {
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "glove"
		}
		if cfg.VectorStore.Qdrant.BatchSize == 0 {
			cfg.VectorStore.Qdrant.BatchSize = 256
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}
}
