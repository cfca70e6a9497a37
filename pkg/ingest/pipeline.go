package ingest

import (
	"context"
	"fmt"

	"github.com/docsentry/docsentry/internal/types"
	"github.com/docsentry/docsentry/pkg/logx"
)

// Result summarizes a single ingest run.
type Result struct {
	Documents int
	Chunks    int
}

// Pipeline wires loading, chunking, and indexing into one pass. Re-running
// it over the same directory is idempotent because chunk IDs are derived
// from source and position.
type Pipeline struct {
	loader  types.Loader
	chunker types.Chunker
	index   types.VectorIndex
}

func New(loader types.Loader, chunker types.Chunker, index types.VectorIndex) *Pipeline {
	return &Pipeline{loader: loader, chunker: chunker, index: index}
}

// Run loads every supported file under dir, chunks it, and upserts the
// chunks. An empty directory is not an error; the caller decides how to
// report "nothing to do".
func (p *Pipeline) Run(ctx context.Context, dir string) (Result, error) {
	docs, err := p.loader.Load(ctx, dir)
	if err != nil {
		return Result{}, fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		logx.Warn().Str("dir", dir).Msg("no documents to ingest")
		return Result{}, nil
	}

	chunks, err := p.chunker.Process(docs)
	if err != nil {
		return Result{}, fmt.Errorf("chunk documents: %w", err)
	}

	if err := p.index.Upsert(ctx, chunks); err != nil {
		return Result{}, fmt.Errorf("index chunks: %w", err)
	}

	logx.Info().
		Int("documents", len(docs)).
		Int("chunks", len(chunks)).
		Msg("ingest complete")

	return Result{Documents: len(docs), Chunks: len(chunks)}, nil
}
