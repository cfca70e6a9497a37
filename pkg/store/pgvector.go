package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/docsentry/docsentry/internal/models"
	"github.com/docsentry/docsentry/internal/types"
)

type IndexConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	BatchSize  int
}

// PGIndex is the pgvector-backed VectorIndex. Chunk text is embedded through
// the injected Embedder at write time; the core never inspects raw vectors.
type PGIndex struct {
	config   IndexConfig
	pool     *pgxpool.Pool
	embedder types.Embedder
}

var _ types.VectorIndex = (*PGIndex)(nil)

func applyIndexDefaults(config *IndexConfig) {
	if config.TableName == "" {
		config.TableName = "contract_chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
}

func connect(ctx context.Context, config IndexConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return pool, nil
}

// Create connects and provisions the index schema, then returns a handle.
// Safe to call when the schema already exists.
func Create(ctx context.Context, config IndexConfig, embedder types.Embedder) (*PGIndex, error) {
	applyIndexDefaults(&config)

	pool, err := connect(ctx, config)
	if err != nil {
		return nil, err
	}

	idx := &PGIndex{config: config, pool: pool, embedder: embedder}
	if err := idx.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

// Open reconstructs a handle to a previously created index. It returns
// ErrIndexNotFound when the table does not exist, so callers can tell an
// absent index apart from a broken store.
func Open(ctx context.Context, config IndexConfig, embedder types.Embedder) (*PGIndex, error) {
	applyIndexDefaults(&config)

	pool, err := connect(ctx, config)
	if err != nil {
		return nil, err
	}

	var reg *string
	if err := pool.QueryRow(ctx, "SELECT to_regclass($1)::text", config.TableName).Scan(&reg); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if reg == nil {
		pool.Close()
		return nil, ErrIndexNotFound
	}

	return &PGIndex{config: config, pool: pool, embedder: embedder}, nil
}

func (idx *PGIndex) initialize(ctx context.Context) error {
	// Enable pgvector extension
	if _, err := idx.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	// seq preserves insertion order for search tie-breaking and GetAll.
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			seq BIGSERIAL,
			content TEXT NOT NULL,
			chunk_index INTEGER,
			embedding vector(%d),
			metadata JSONB
		)`, idx.config.TableName, idx.config.VectorDim)

	if _, err := idx.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		idx.config.TableName, idx.config.TableName)

	if _, err := idx.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// Upsert persists chunks with derived embeddings inside one transaction.
// Re-upserting an existing chunk ID replaces its content and embedding, so
// re-ingesting the same batch never drops previously stored chunks.
func (idx *PGIndex) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := idx.pool.Begin(ctx)
	if err != nil {
		return &IndexWriteError{Err: err}
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, content, chunk_index, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			chunk_index = EXCLUDED.chunk_index,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata`,
		idx.config.TableName)

	for start := 0; start < len(chunks); start += idx.config.BatchSize {
		end := start + idx.config.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vectors, err := idx.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return &IndexWriteError{Err: fmt.Errorf("failed to create embeddings: %w", err)}
		}
		if len(vectors) != len(batch) {
			return &IndexWriteError{Err: fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch))}
		}

		for i, c := range batch {
			metadata, err := json.Marshal(c.Metadata)
			if err != nil {
				return &IndexWriteError{Err: err}
			}
			_, err = tx.Exec(ctx, stmt,
				c.ID,
				c.Content,
				c.Index,
				pgvector.NewVector(vectors[i]),
				metadata,
			)
			if err != nil {
				return &IndexWriteError{Err: err}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &IndexWriteError{Err: err}
	}

	return nil
}

// SimilaritySearch returns the k chunks nearest to the query text, nearest
// first; equidistant chunks come back in insertion order.
func (idx *PGIndex) SimilaritySearch(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	vector, err := idx.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	sql := fmt.Sprintf(`
		SELECT id, content, chunk_index, metadata
		FROM %s
		ORDER BY embedding <=> $1, seq
		LIMIT $2`,
		idx.config.TableName)

	rows, err := idx.pool.Query(ctx, sql, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// GetAll returns every stored chunk in insertion order for bulk scanning.
func (idx *PGIndex) GetAll(ctx context.Context) ([]models.Chunk, error) {
	sql := fmt.Sprintf(`
		SELECT id, content, chunk_index, metadata
		FROM %s
		ORDER BY seq`,
		idx.config.TableName)

	rows, err := idx.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

type chunkRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanChunks(rows chunkRows) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for rows.Next() {
		var (
			chunk models.Chunk
			raw   []byte
		)
		if err := rows.Scan(&chunk.ID, &chunk.Content, &chunk.Index, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (idx *PGIndex) Close() {
	if idx.pool != nil {
		idx.pool.Close()
	}
}
