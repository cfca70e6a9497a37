package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsentry/docsentry/internal/models"
	"github.com/docsentry/docsentry/pkg/store"
)

// fixedEmbedder returns deterministic vectors so the integration test does
// not need a running Ollama server.
type fixedEmbedder struct {
	dim int
}

func (f fixedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, f.dim)
		for j, r := range text {
			v[j%f.dim] += float32(r)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (f fixedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func getTestConfig(t *testing.T) store.IndexConfig {
	t.Helper()
	connString := os.Getenv("DOCSENTRY_TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("DOCSENTRY_TEST_DATABASE_URL not set")
	}
	return store.IndexConfig{
		ConnString: connString,
		TableName:  "test_contract_chunks",
		VectorDim:  8,
	}
}

func TestPGIndex_RoundTrip(t *testing.T) {
	ctx := context.Background()
	config := getTestConfig(t)

	idx, err := store.Create(ctx, config, fixedEmbedder{dim: config.VectorDim})
	require.NoError(t, err)
	defer idx.Close()

	chunks := []models.Chunk{
		{
			ID:      "lease.pdf_0",
			Content: "Monthly rent is $2000.",
			Index:   0,
			Metadata: map[string]string{
				models.MetaSource: "lease.pdf",
				models.MetaPage:   "1",
			},
		},
		{
			ID:      "lease.pdf_1",
			Content: "The security deposit is $3000.",
			Index:   1,
			Metadata: map[string]string{
				models.MetaSource: "lease.pdf",
				models.MetaPage:   "2",
			},
		},
	}

	require.NoError(t, idx.Upsert(ctx, chunks))

	// re-upsert must not duplicate rows
	require.NoError(t, idx.Upsert(ctx, chunks))

	all, err := idx.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "lease.pdf", all[0].Source())

	results, err := idx.SimilaritySearch(ctx, "Monthly rent is $2000.", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "lease.pdf_0", results[0].ID)
}

func TestPGIndex_OpenMissingTable(t *testing.T) {
	ctx := context.Background()
	config := getTestConfig(t)
	config.TableName = "never_created_table"

	_, err := store.Open(ctx, config, fixedEmbedder{dim: config.VectorDim})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrIndexNotFound)
}
