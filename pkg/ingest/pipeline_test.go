package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsentry/docsentry/internal/models"
)

type fakeLoader struct {
	docs []models.Document
	err  error
}

func (f *fakeLoader) Load(ctx context.Context, dir string) ([]models.Document, error) {
	return f.docs, f.err
}

type fakeChunker struct {
	chunks []models.Chunk
	err    error
}

func (f *fakeChunker) Process(docs []models.Document) ([]models.Chunk, error) {
	return f.chunks, f.err
}

type fakeIndex struct {
	upserted []models.Chunk
	err      error
}

func (f *fakeIndex) Upsert(ctx context.Context, chunks []models.Chunk) error {
	f.upserted = append(f.upserted, chunks...)
	return f.err
}

func (f *fakeIndex) SimilaritySearch(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	return nil, nil
}

func (f *fakeIndex) GetAll(ctx context.Context) ([]models.Chunk, error) { return nil, nil }

func (f *fakeIndex) Close() {}

func TestRun_Success(t *testing.T) {
	docs := []models.Document{
		{Content: "alpha", Metadata: map[string]string{models.MetaSource: "a.txt"}},
		{Content: "beta", Metadata: map[string]string{models.MetaSource: "b.txt"}},
	}
	chunks := []models.Chunk{
		{ID: "a.txt_0", Content: "alpha"},
		{ID: "b.txt_0", Content: "beta"},
		{ID: "b.txt_1", Content: "beta tail"},
	}
	index := &fakeIndex{}
	pipeline := New(&fakeLoader{docs: docs}, &fakeChunker{chunks: chunks}, index)

	result, err := pipeline.Run(context.Background(), "/docs")

	require.NoError(t, err)
	assert.Equal(t, Result{Documents: 2, Chunks: 3}, result)
	assert.Len(t, index.upserted, 3)
}

func TestRun_EmptyDirectoryIsNotAnError(t *testing.T) {
	index := &fakeIndex{}
	pipeline := New(&fakeLoader{}, &fakeChunker{}, index)

	result, err := pipeline.Run(context.Background(), "/empty")

	require.NoError(t, err)
	assert.Equal(t, Result{}, result)
	assert.Empty(t, index.upserted)
}

func TestRun_LoaderFailure(t *testing.T) {
	pipeline := New(&fakeLoader{err: errors.New("no such directory")}, &fakeChunker{}, &fakeIndex{})

	_, err := pipeline.Run(context.Background(), "/missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load documents")
}

func TestRun_UpsertFailure(t *testing.T) {
	docs := []models.Document{{Content: "alpha", Metadata: map[string]string{models.MetaSource: "a.txt"}}}
	chunks := []models.Chunk{{ID: "a.txt_0", Content: "alpha"}}
	pipeline := New(&fakeLoader{docs: docs}, &fakeChunker{chunks: chunks}, &fakeIndex{err: errors.New("write refused")})

	_, err := pipeline.Run(context.Background(), "/docs")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index chunks")
}
