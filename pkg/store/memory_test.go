package store_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsentry/docsentry/internal/models"
	"github.com/docsentry/docsentry/pkg/store"
)

// keywordEmbedder maps texts onto a tiny fixed vocabulary so similarity is
// predictable in tests.
type keywordEmbedder struct {
	vocabulary []string
	failWith   error
}

func (e *keywordEmbedder) embed(text string) []float32 {
	lower := strings.ToLower(text)
	vector := make([]float32, len(e.vocabulary))
	for i, word := range e.vocabulary {
		if strings.Contains(lower, word) {
			vector[i] = 1
		}
	}
	return vector
}

func (e *keywordEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if e.failWith != nil {
		return nil, e.failWith
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *keywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if e.failWith != nil {
		return nil, e.failWith
	}
	return e.embed(text), nil
}

func newTestEmbedder() *keywordEmbedder {
	return &keywordEmbedder{vocabulary: []string{"rent", "payment", "termination", "insurance"}}
}

func chunk(id, content string) models.Chunk {
	return models.Chunk{
		ID:      id,
		Content: content,
		Metadata: map[string]string{
			models.MetaSource: id + ".txt",
		},
	}
}

func TestMemoryIndex_SearchOrdersByRelevance(t *testing.T) {
	ctx := context.Background()
	idx := store.NewMemoryIndex(newTestEmbedder())

	err := idx.Upsert(ctx, []models.Chunk{
		chunk("a", "insurance obligations of the tenant"),
		chunk("b", "rent payment schedule and rent increases"),
		chunk("c", "termination provisions"),
	})
	require.NoError(t, err)

	results, err := idx.SimilaritySearch(ctx, "when is rent payment due", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].ID)
}

func TestMemoryIndex_TiesBreakByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx := store.NewMemoryIndex(newTestEmbedder())

	err := idx.Upsert(ctx, []models.Chunk{
		chunk("first", "rent clause"),
		chunk("second", "rent clause"),
		chunk("third", "rent clause"),
	})
	require.NoError(t, err)

	results, err := idx.SimilaritySearch(ctx, "rent", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{results[0].ID, results[1].ID, results[2].ID})
}

func TestMemoryIndex_GetAllReadsOwnWrites(t *testing.T) {
	ctx := context.Background()
	idx := store.NewMemoryIndex(newTestEmbedder())

	require.NoError(t, idx.Upsert(ctx, []models.Chunk{chunk("a", "rent")}))
	require.NoError(t, idx.Upsert(ctx, []models.Chunk{chunk("b", "insurance")}))

	all, err := idx.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}

func TestMemoryIndex_UpsertIsIdempotentPerID(t *testing.T) {
	ctx := context.Background()
	idx := store.NewMemoryIndex(newTestEmbedder())

	batch := []models.Chunk{chunk("a", "rent"), chunk("b", "termination")}
	require.NoError(t, idx.Upsert(ctx, batch))
	require.NoError(t, idx.Upsert(ctx, batch))

	all, err := idx.GetAll(ctx)
	require.NoError(t, err)
	// Re-ingesting the same batch never drops or duplicates chunks.
	assert.Len(t, all, 2)
}

func TestMemoryIndex_SearchOnEmptyIndexFails(t *testing.T) {
	idx := store.NewMemoryIndex(newTestEmbedder())

	_, err := idx.SimilaritySearch(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, store.ErrIndexUnavailable)
}

func TestMemoryIndex_EmbedFailureIsWriteError(t *testing.T) {
	embedder := newTestEmbedder()
	embedder.failWith = errors.New("embedding service down")
	idx := store.NewMemoryIndex(embedder)

	err := idx.Upsert(context.Background(), []models.Chunk{chunk("a", "rent")})
	require.Error(t, err)

	var writeErr *store.IndexWriteError
	assert.ErrorAs(t, err, &writeErr)
}

func TestMemoryIndex_GetAllEmptyCorpusIsNotAnError(t *testing.T) {
	idx := store.NewMemoryIndex(newTestEmbedder())
	all, err := idx.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
