package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/docsentry/docsentry/internal/models"
	"github.com/docsentry/docsentry/internal/types"
)

// MemoryIndex is an in-memory VectorIndex using brute-force cosine
// similarity. It backs tests and the zero-infrastructure mode; durable
// deployments use PGIndex.
type MemoryIndex struct {
	mu       sync.RWMutex
	embedder types.Embedder
	chunks   []models.Chunk
	vectors  [][]float32
	byID     map[string]int
}

var _ types.VectorIndex = (*MemoryIndex)(nil)

func NewMemoryIndex(embedder types.Embedder) *MemoryIndex {
	return &MemoryIndex{
		embedder: embedder,
		byID:     make(map[string]int),
	}
}

func (m *MemoryIndex) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := m.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return &IndexWriteError{Err: err}
	}
	if len(vectors) != len(chunks) {
		return &IndexWriteError{Err: fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range chunks {
		if pos, ok := m.byID[c.ID]; ok {
			m.chunks[pos] = c
			m.vectors[pos] = vectors[i]
			continue
		}
		m.byID[c.ID] = len(m.chunks)
		m.chunks = append(m.chunks, c)
		m.vectors = append(m.vectors, vectors[i])
	}
	return nil
}

func (m *MemoryIndex) SimilaritySearch(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	vector, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.chunks) == 0 {
		return nil, ErrIndexUnavailable
	}
	if k <= 0 {
		k = 5
	}

	order := make([]int, len(m.vectors))
	scores := make([]float64, len(m.vectors))
	for i := range m.vectors {
		order[i] = i
		scores[i] = cosine(m.vectors[i], vector)
	}
	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	results := make([]models.Chunk, 0, k)
	for _, i := range order[:k] {
		results = append(results, m.chunks[i])
	}
	return results, nil
}

func (m *MemoryIndex) GetAll(ctx context.Context) ([]models.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Chunk, len(m.chunks))
	copy(out, m.chunks)
	return out, nil
}

func (m *MemoryIndex) Close() {}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
