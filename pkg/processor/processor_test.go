package processor_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsentry/docsentry/internal/models"
	"github.com/docsentry/docsentry/pkg/processor"
)

func testDoc(source, content string) models.Document {
	return models.Document{
		Content: content,
		Metadata: map[string]string{
			models.MetaSource:        source,
			models.MetaFileType:      "txt",
			models.MetaProcessedDate: "2024-12-15T09:00:00Z",
		},
	}
}

func TestProcess_ShortDocumentSingleChunk(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 1000, ChunkOverlap: 200})

	chunks, err := p.Process([]models.Document{testDoc("short.txt", "This is a short contract.")})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "This is a short contract.", chunks[0].Content)
	assert.Equal(t, "short.txt_0", chunks[0].ID)
}

func TestProcess_Determinism(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 80, ChunkOverlap: 20})
	doc := testDoc("contract.txt", strings.Repeat("The party of the first part shall pay rent monthly. ", 30))

	first, err := p.Process([]models.Document{doc})
	require.NoError(t, err)
	second, err := p.Process([]models.Document{doc})
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Content, second[i].Content)
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestProcess_MaxSizeAndOverlap(t *testing.T) {
	const size, overlap = 100, 25
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: size, ChunkOverlap: overlap})
	doc := testDoc("lease.txt", strings.Repeat("Tenant agrees to maintain the premises in good order. ", 40))

	chunks, err := p.Process([]models.Document{doc})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), size)
	}

	for i := 0; i < len(chunks)-1; i++ {
		tail := chunks[i].Content[len(chunks[i].Content)-overlap:]
		head := chunks[i+1].Content[:overlap]
		assert.Equal(t, tail, head, "chunk %d/%d overlap mismatch", i, i+1)
	}
}

func TestProcess_MultibyteOverlapStaysOnRuneBoundary(t *testing.T) {
	// No whitespace, so every cut is a hard cut; the odd overlap would put
	// the next chunk's start mid-rune without the rune back-off.
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 25, ChunkOverlap: 7})
	doc := testDoc("utf8.txt", strings.Repeat("é", 200))

	chunks, err := p.Process([]models.Document{doc})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.True(t, utf8.ValidString(c.Content), "chunk %d is not valid UTF-8", i)
	}
}

func TestProcess_PrefersParagraphBoundary(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 120, ChunkOverlap: 10})
	content := "First paragraph about the agreement terms.\n\nSecond paragraph about payment schedules and the obligations of each party involved."

	chunks, err := p.Process([]models.Document{testDoc("terms.txt", content)})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "First paragraph about the agreement terms.\n\n", chunks[0].Content)
}

func TestProcess_OrderPreserved(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 1000, ChunkOverlap: 200})
	docs := []models.Document{
		testDoc("a.txt", "Alpha content."),
		testDoc("b.txt", "Beta content."),
	}

	chunks, err := p.Process(docs)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a.txt", chunks[0].Source())
	assert.Equal(t, "b.txt", chunks[1].Source())
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 0, chunks[1].Index)
}

func TestProcess_PageMetadataFromMarkers(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 60, ChunkOverlap: 10})
	content := "\n--- Page 1 ---\nIntro clause text for the first page here.\n--- Page 2 ---\nExpiration Date: 12/31/2024 appears on page two."

	chunks, err := p.Process([]models.Document{testDoc("scan.pdf", content)})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	page, ok := chunks[0].Page()
	require.True(t, ok)
	assert.Equal(t, 1, page)

	last := chunks[len(chunks)-1]
	page, ok = last.Page()
	require.True(t, ok)
	assert.Equal(t, 2, page)
}

func TestProcess_NoMarkersNoPageMetadata(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 1000, ChunkOverlap: 200})
	chunks, err := p.Process([]models.Document{testDoc("plain.txt", "No page markers here.")})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	_, ok := chunks[0].Page()
	assert.False(t, ok)
}

func TestProcess_MetadataCarriedForward(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 1000, ChunkOverlap: 200})
	chunks, err := p.Process([]models.Document{testDoc("deal.txt", "Some content.")})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "deal.txt", chunks[0].Metadata[models.MetaSource])
	assert.Equal(t, "txt", chunks[0].Metadata[models.MetaFileType])
	assert.Equal(t, "2024-12-15T09:00:00Z", chunks[0].Metadata[models.MetaProcessedDate])
	assert.Equal(t, "0", chunks[0].Metadata[models.MetaChunkIndex])
}
