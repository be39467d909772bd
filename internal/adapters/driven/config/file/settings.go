// Package file loads and persists retrieval settings from a TOML file.
// Settings are validated at load time so a bad configuration fails before
// any retrieval work starts, never at query time.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/retrieva/internal/core/domain"
)

// Storage backends for the document store.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Settings holds every tunable retrieval parameter.
type Settings struct {
	Chunking   ChunkingSettings   `toml:"chunking"`
	BM25       BM25Settings       `toml:"bm25"`
	Fusion     FusionSettings     `toml:"fusion"`
	Retrieval  RetrievalSettings  `toml:"retrieval"`
	Vector     VectorSettings     `toml:"vector"`
	Evaluation EvaluationSettings `toml:"evaluation"`
	Storage    StorageSettings    `toml:"storage"`
}

// ChunkingSettings configures the document chunker.
type ChunkingSettings struct {
	MaxTokens     int `toml:"max_tokens"`
	OverlapTokens int `toml:"overlap_tokens"`
}

// BM25Settings configures the lexical index scoring.
type BM25Settings struct {
	K1 float64 `toml:"k1"`
	B  float64 `toml:"b"`
}

// FusionSettings configures the lexical/vector score balance.
type FusionSettings struct {
	LexicalWeight float64 `toml:"lexical_weight"`
	VectorWeight  float64 `toml:"vector_weight"`
}

// RetrievalSettings bounds the pipeline's candidate and result counts.
type RetrievalSettings struct {
	TopRetrieve int `toml:"top_retrieve"`
	TopFinal    int `toml:"top_final"`
}

// VectorSettings configures the vector search path.
type VectorSettings struct {
	Enabled    bool `toml:"enabled"`
	Dimensions int  `toml:"dimensions"`
}

// EvaluationSettings configures the evaluation runner.
type EvaluationSettings struct {
	Workers int `toml:"workers"`
}

// StorageSettings selects the document store backend.
type StorageSettings struct {
	// Backend is "memory" or "sqlite".
	Backend string `toml:"backend"`

	// DataDir holds the sqlite database. Empty means ~/.retrieva/data.
	DataDir string `toml:"data_dir"`
}

// Default returns the settings used when no config file exists.
func Default() Settings {
	return Settings{
		Chunking:   ChunkingSettings{MaxTokens: 200, OverlapTokens: 50},
		BM25:       BM25Settings{K1: 1.5, B: 0.75},
		Fusion:     FusionSettings{LexicalWeight: 0.5, VectorWeight: 0.5},
		Retrieval:  RetrievalSettings{TopRetrieve: 50, TopFinal: 10},
		Vector:     VectorSettings{Enabled: true, Dimensions: 256},
		Evaluation: EvaluationSettings{Workers: 4},
		Storage:    StorageSettings{Backend: StorageSQLite},
	}
}

// DefaultPath returns the default config file location,
// ~/.retrieva/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".retrieva", "config.toml"), nil
}

// Load reads settings from the TOML file at path, applying defaults for
// anything the file omits. A missing file yields the defaults. The result
// is always validated.
func Load(path string) (Settings, error) {
	settings := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, settings.Validate()
		}
		return Settings{}, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("config %s: %w", path, err)
	}
	return settings, nil
}

// Save writes the settings to the TOML file at path, creating the parent
// directory if needed.
func Save(path string, settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// Validate checks every parameter, failing fast with
// domain.ErrInvalidConfiguration.
func (s Settings) Validate() error {
	if s.Chunking.MaxTokens <= 0 {
		return fmt.Errorf("%w: chunking.max_tokens must be positive, got %d",
			domain.ErrInvalidConfiguration, s.Chunking.MaxTokens)
	}
	if s.Chunking.OverlapTokens < 0 || s.Chunking.OverlapTokens >= s.Chunking.MaxTokens {
		return fmt.Errorf("%w: chunking.overlap_tokens must be in [0, %d), got %d",
			domain.ErrInvalidConfiguration, s.Chunking.MaxTokens, s.Chunking.OverlapTokens)
	}
	if s.BM25.K1 < 0 {
		return fmt.Errorf("%w: bm25.k1 must be non-negative, got %g", domain.ErrInvalidConfiguration, s.BM25.K1)
	}
	if s.BM25.B < 0 || s.BM25.B > 1 {
		return fmt.Errorf("%w: bm25.b must be in [0, 1], got %g", domain.ErrInvalidConfiguration, s.BM25.B)
	}
	if s.Fusion.LexicalWeight < 0 || s.Fusion.VectorWeight < 0 {
		return fmt.Errorf("%w: fusion weights must be non-negative", domain.ErrInvalidConfiguration)
	}
	if s.Retrieval.TopFinal <= 0 || s.Retrieval.TopFinal > s.Retrieval.TopRetrieve {
		return fmt.Errorf("%w: need 0 < retrieval.top_final <= retrieval.top_retrieve, got %d and %d",
			domain.ErrInvalidConfiguration, s.Retrieval.TopFinal, s.Retrieval.TopRetrieve)
	}
	if s.Vector.Enabled && s.Vector.Dimensions <= 0 {
		return fmt.Errorf("%w: vector.dimensions must be positive, got %d",
			domain.ErrInvalidConfiguration, s.Vector.Dimensions)
	}
	if s.Evaluation.Workers <= 0 {
		return fmt.Errorf("%w: evaluation.workers must be positive, got %d",
			domain.ErrInvalidConfiguration, s.Evaluation.Workers)
	}
	if s.Storage.Backend != StorageMemory && s.Storage.Backend != StorageSQLite {
		return fmt.Errorf("%w: storage.backend must be %q or %q, got %q",
			domain.ErrInvalidConfiguration, StorageMemory, StorageSQLite, s.Storage.Backend)
	}
	return nil
}

// Weights returns the fusion weights as a domain value.
func (s Settings) Weights() domain.Weights {
	return domain.Weights{Lexical: s.Fusion.LexicalWeight, Vector: s.Fusion.VectorWeight}
}
