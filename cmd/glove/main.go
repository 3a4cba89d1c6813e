// Package main implements the glove CLI for inspecting pretrained word embeddings.
package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"glove/internal/config"
	"glove/internal/embedding/glove"
	"glove/internal/logger"
	"glove/internal/service"
	"glove/internal/vectorstore"
	"glove/internal/vectorstore/memory"
	"glove/internal/vectorstore/qdrant"
)

var version = "dev"

func main() {
	// .env is optional
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand once the config is read.
type app struct {
	configPath string
	logLevel   string
	embeddings string

	cfg *config.AppConfig
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "glove",
		Short: "Inspect pretrained GloVe word embeddings",
		Long: `glove loads a pretrained GloVe text file into a frozen embedding table
and answers vocabulary, neighbour and coverage questions about it.

The embedding file is taken from glove.matrixResourceName in the config
(or GLOVE_MATRIX_RESOURCE), unless --embeddings is given.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config YAML (default ./config.yaml or ~/.config/glove/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.embeddings, "embeddings", "", "embedding file, overrides glove.matrixResourceName")

	root.AddCommand(
		newInspectCmd(a),
		newSimilarCmd(a),
		newCoverageCmd(a),
		newExportCmd(a),
		newTUICmd(a),
		newDecodeCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.Load(a.configPath)
	} else {
		a.cfg, a.configPath, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}
	a.log = logger.New(a.cfg.Log.Level)
	a.log.Debug("config loaded", "path", a.configPath)
	return nil
}

// resourcePath resolves the embedding file to load.
func (a *app) resourcePath() (string, error) {
	if a.embeddings != "" {
		return a.embeddings, nil
	}
	path, err := a.cfg.GetString("glove.matrixResourceName")
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("no embedding file configured")
	}
	return path, nil
}

// loader reads embeddings with the configured header mode, dimension and seed.
func (a *app) loader() (service.Loader, error) {
	header, err := glove.ParseHeaderMode(a.cfg.Glove.Header)
	if err != nil {
		return nil, err
	}
	seed := a.cfg.Glove.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	log := a.log
	dim := a.cfg.Glove.Dimension
	return func(path string) (*glove.WordEmbeddingMap, error) {
		start := time.Now()
		m, err := glove.Load(path, glove.Options{
			Dimension: dim,
			Header:    header,
			Rand:      rand.New(rand.NewPCG(seed, seed)),
			Log:       log,
		})
		if err != nil {
			return nil, err
		}
		log.Debug("embedding file read", "path", path, "seed", seed, "elapsed", time.Since(start).String())
		return m, nil
	}, nil
}

func (a *app) store(kind string) (vectorstore.Storage, error) {
	switch kind {
	case "memory":
		return memory.NewStorage(), nil
	case "qdrant":
		q := a.cfg.VectorStore.Qdrant
		if q.URL == "" {
			return nil, fmt.Errorf("qdrant url missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: q.Collection,
			BatchSize:  q.BatchSize,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", kind)
	}
}

// loadService builds an embedding service on the given store kind and loads the
// configured embedding file into it.
func (a *app) loadService(kind string) (*service.EmbeddingServiceImpl, string, error) {
	path, err := a.resourcePath()
	if err != nil {
		return nil, "", err
	}
	load, err := a.loader()
	if err != nil {
		return nil, "", err
	}
	st, err := a.store(kind)
	if err != nil {
		return nil, "", err
	}
	svc := service.NewEmbeddingService(load, st, a.log)
	summary, err := svc.Load(path)
	if err != nil {
		return nil, "", err
	}
	return svc, summary, nil
}
