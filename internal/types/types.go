package types

import (
	"context"

	"github.com/docsentry/docsentry/internal/models"
)

// Core interfaces

// VectorIndex is the contract the core requires from the nearest-neighbor
// store. Implementations must be safe for concurrent reads; GetAll must
// reflect every prior Upsert within the same process.
type VectorIndex interface {
	// Upsert persists chunks with derived embeddings. Adding more chunks
	// never invalidates previously stored ones.
	Upsert(ctx context.Context, chunks []models.Chunk) error

	// SimilaritySearch returns the k chunks nearest to the query text,
	// nearest first, ties broken by insertion order.
	SimilaritySearch(ctx context.Context, query string, k int) ([]models.Chunk, error)

	// GetAll returns every stored chunk with metadata for bulk scanning.
	GetAll(ctx context.Context) ([]models.Chunk, error)

	Close()
}

// Embedder converts text into vectors via an external embedding service.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator is the opaque text-generation service behind the QA engine.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Loader extracts plain-text Documents from raw files in a directory.
type Loader interface {
	Load(ctx context.Context, dir string) ([]models.Document, error)
}

// Chunker splits Documents into ordered, overlapping Chunks.
type Chunker interface {
	Process(docs []models.Document) ([]models.Chunk, error)
}

// ReportSender delivers a generated report as an opaque payload.
type ReportSender interface {
	Send(ctx context.Context, subject, body string) error
}
