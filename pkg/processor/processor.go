package processor

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/docsentry/docsentry/internal/models"
)

type ProcessorConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// Processor splits Documents into overlapping chunks. Splitting is greedy:
// content accumulates up to ChunkSize, then backs off to the nearest
// paragraph, sentence, or word boundary before hard-cutting. The trailing
// ChunkOverlap bytes of a chunk are repeated as the leading content of the
// next one. Identical input and configuration always produce byte-identical
// chunk sequences.
type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}
	if config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize / 5
	}

	return Processor{
		config: config,
	}
}

// Process turns an ordered sequence of Documents into an ordered sequence
// of Chunks. Document order and chunk order within a document are preserved.
func (p *Processor) Process(docs []models.Document) ([]models.Chunk, error) {
	var chunks []models.Chunk

	for _, doc := range docs {
		pages := pageStarts(doc.Content)

		for i, sp := range p.split(doc.Content) {
			metadata := make(map[string]string, len(doc.Metadata)+2)
			for k, v := range doc.Metadata {
				metadata[k] = v
			}
			metadata[models.MetaChunkIndex] = strconv.Itoa(i)
			if page, ok := pageFor(pages, sp.start); ok {
				metadata[models.MetaPage] = strconv.Itoa(page)
			}

			chunks = append(chunks, models.Chunk{
				ID:       fmt.Sprintf("%s_%d", doc.Source(), i),
				Content:  doc.Content[sp.start:sp.end],
				Index:    i,
				Metadata: metadata,
			})
		}
	}

	return chunks, nil
}

type span struct {
	start, end int
}

func (p *Processor) split(text string) []span {
	var spans []span

	start := 0
	for start < len(text) {
		end := start + p.config.ChunkSize
		if end >= len(text) {
			spans = append(spans, span{start, len(text)})
			break
		}

		cut := p.boundary(text, start, end)
		spans = append(spans, span{start, cut})

		next := cut - p.config.ChunkOverlap
		for next > start && !utf8.RuneStart(text[next]) {
			next--
		}
		if next <= start {
			// Chunk shorter than the overlap; move on without repeating.
			next = cut
		}
		start = next
	}

	return spans
}

var sentenceEnders = []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}

// boundary picks the cut position for a chunk starting at start whose hard
// limit is end: the last paragraph break, else the last sentence end, else
// the last whitespace, else a hard cut on a rune boundary.
func (p *Processor) boundary(text string, start, end int) int {
	window := text[start:end]

	if i := strings.LastIndex(window, "\n\n"); i > 0 {
		return start + i + 2
	}

	best := start
	for _, ender := range sentenceEnders {
		if i := strings.LastIndex(window, ender); i >= 0 {
			if cut := start + i + len(ender); cut > best {
				best = cut
			}
		}
	}
	if best > start {
		return best
	}

	if i := strings.LastIndexAny(window, " \t\n"); i > 0 {
		return start + i + 1
	}

	cut := end
	for cut > start && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == start {
		cut = end
	}
	return cut
}

var pageMarkerPattern = regexp.MustCompile(`--- Page (\d+) ---`)

type pageStart struct {
	offset int
	page   int
}

func pageStarts(text string) []pageStart {
	matches := pageMarkerPattern.FindAllStringSubmatchIndex(text, -1)
	starts := make([]pageStart, 0, len(matches))
	for _, m := range matches {
		page, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		starts = append(starts, pageStart{offset: m[0], page: page})
	}
	return starts
}

// pageFor returns the page containing the given offset, i.e. the page of
// the nearest marker at or before it.
func pageFor(pages []pageStart, offset int) (int, bool) {
	if len(pages) == 0 {
		return 0, false
	}
	i := sort.Search(len(pages), func(i int) bool { return pages[i].offset > offset })
	if i == 0 {
		return pages[0].page, true
	}
	return pages[i-1].page, true
}
