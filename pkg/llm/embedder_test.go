package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsentry/docsentry/pkg/llm"
)

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     "nomic-embed-text:latest",
		BaseURL:   "http://localhost:11434",
		RateLimit: 5,
	})
	require.NoError(t, err)
	assert.NotNil(t, emb)
}

func TestNewEmbedder_Defaults(t *testing.T) {
	emb, err := llm.NewEmbedder()
	require.NoError(t, err)
	assert.NotNil(t, emb)
}
