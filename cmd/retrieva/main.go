// Command retrieva is the hybrid retrieval CLI: ingest a corpus, search
// it, and evaluate retrieval quality.
package main

import (
	"context"
	"fmt"
	"os"

	configfile "github.com/custodia-labs/retrieva/internal/adapters/driven/config/file"
	hashembed "github.com/custodia-labs/retrieva/internal/adapters/driven/embedding/hash"
	memstore "github.com/custodia-labs/retrieva/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/retrieva/internal/adapters/driven/storage/sqlite"
	memvector "github.com/custodia-labs/retrieva/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/retrieva/internal/adapters/driving/cli"
	"github.com/custodia-labs/retrieva/internal/chunker"
	"github.com/custodia-labs/retrieva/internal/core/ports/driven"
	"github.com/custodia-labs/retrieva/internal/core/services"
	"github.com/custodia-labs/retrieva/internal/index/bm25"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath, err := configfile.DefaultPath()
	if err != nil {
		return err
	}
	if env := os.Getenv("RETRIEVA_CONFIG"); env != "" {
		configPath = env
	}

	settings, err := configfile.Load(configPath)
	if err != nil {
		return err
	}

	docStore, closeStore, err := newDocumentStore(settings)
	if err != nil {
		return err
	}
	defer closeStore()

	index, err := bm25.New(bm25.WithK1(settings.BM25.K1), bm25.WithB(settings.BM25.B))
	if err != nil {
		return err
	}

	chk, err := chunker.New(
		chunker.WithMaxTokens(settings.Chunking.MaxTokens),
		chunker.WithOverlapTokens(settings.Chunking.OverlapTokens),
	)
	if err != nil {
		return err
	}

	var vectorIndex driven.VectorIndex
	var embedder driven.EmbeddingService
	if settings.Vector.Enabled {
		vectorIndex = memvector.NewIndex()
		embedder, err = hashembed.New(settings.Vector.Dimensions)
		if err != nil {
			return err
		}
	}

	retrieval, err := services.NewRetrievalService(
		docStore, index, vectorIndex, embedder, nil, chk, settings.Weights())
	if err != nil {
		return err
	}

	// Make a persisted corpus searchable without re-ingesting.
	if err := retrieval.Reindex(context.Background()); err != nil {
		return err
	}

	evaluator, err := services.NewEvaluator(retrieval,
		services.WithTopRetrieve(settings.Retrieval.TopRetrieve),
		services.WithWorkers(settings.Evaluation.Workers))
	if err != nil {
		return err
	}

	cli.SetServices(retrieval, evaluator)
	cli.SetVersion(version)
	return cli.Execute()
}

func newDocumentStore(settings configfile.Settings) (driven.DocumentStore, func(), error) {
	if settings.Storage.Backend == configfile.StorageMemory {
		return memstore.NewDocumentStore(), func() {}, nil
	}

	store, err := sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}
