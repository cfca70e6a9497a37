package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/docsentry/docsentry/internal/models"
	"github.com/docsentry/docsentry/internal/types"
	"github.com/docsentry/docsentry/pkg/logx"
)

// ErrorAnswer is returned whenever retrieval or generation fails. The
// engine never propagates a fault to its caller.
const ErrorAnswer = "Sorry, I encountered an error while processing your query."

const promptTemplate = `You are a contract management assistant. Use the following context to answer the question.
Always cite your sources by mentioning the document name and page number when available.

Context: %s

Question: %s

Answer:`

type EngineConfig struct {
	// TopK is how many chunks are retrieved per question.
	TopK int
}

// Engine answers natural-language questions from the indexed corpus with
// cited sources.
type Engine struct {
	config    EngineConfig
	index     types.VectorIndex
	generator types.Generator
}

func NewWithConfig(index types.VectorIndex, generator types.Generator, config EngineConfig) *Engine {
	if config.TopK == 0 {
		config.TopK = 5
	}
	return &Engine{
		config:    config,
		index:     index,
		generator: generator,
	}
}

func New(index types.VectorIndex, generator types.Generator) *Engine {
	return NewWithConfig(index, generator, EngineConfig{})
}

// Query retrieves the most relevant chunks, asks the generation service for
// a grounded answer, and returns it with deduplicated citations. Any
// retrieval or generation failure yields the fixed error answer with empty
// sources; the result is always well formed.
func (e *Engine) Query(ctx context.Context, question string) models.QueryResult {
	chunks, err := e.index.SimilaritySearch(ctx, question, e.config.TopK)
	if err != nil {
		logx.Error().Err(err).Msg("retrieval failed")
		return errorResult()
	}

	var contextBlock strings.Builder
	for _, chunk := range chunks {
		contextBlock.WriteString(fmt.Sprintf("From %s%s:\n%s\n\n",
			chunk.Source(), pageSuffix(chunk), chunk.Content))
	}

	prompt := fmt.Sprintf(promptTemplate, contextBlock.String(), question)

	answer, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		logx.Error().Err(err).Msg("generation failed")
		return errorResult()
	}

	return models.QueryResult{
		Answer:            answer,
		Sources:           Citations(chunks),
		RelevantDocuments: chunks,
	}
}

// SimilarDocuments returns up to k distinct document names whose content is
// close to the named document, excluding the document itself.
func (e *Engine) SimilarDocuments(ctx context.Context, source string, k int) ([]string, error) {
	chunks, err := e.index.SimilaritySearch(ctx, fmt.Sprintf("document about %s", source), e.config.TopK+k)
	if err != nil {
		return nil, err
	}

	var names []string
	seen := make(map[string]bool)
	for _, chunk := range chunks {
		name := chunk.Source()
		if name == source || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
		if len(names) == k {
			break
		}
	}
	return names, nil
}

// Citations deduplicates chunk provenance by (document, page) pair,
// preserving first-seen order.
func Citations(chunks []models.Chunk) []models.Citation {
	var citations []models.Citation
	seen := make(map[models.Citation]bool)
	for _, chunk := range chunks {
		c := models.Citation{Document: chunk.Source(), Page: "N/A"}
		if page, ok := chunk.Page(); ok {
			c.Page = strconv.Itoa(page)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		citations = append(citations, c)
	}
	return citations
}

func pageSuffix(chunk models.Chunk) string {
	if page, ok := chunk.Page(); ok {
		return fmt.Sprintf(" (Page %d)", page)
	}
	return ""
}

func errorResult() models.QueryResult {
	return models.QueryResult{
		Answer:            ErrorAnswer,
		Sources:           []models.Citation{},
		RelevantDocuments: []models.Chunk{},
	}
}
