package models

import (
	"strconv"
	"time"
)

// Metadata keys attached by the loader and carried through chunking.
const (
	MetaSource        = "source"
	MetaFileType      = "file_type"
	MetaProcessedDate = "processed_date"
	MetaPage          = "page"
	MetaChunkIndex    = "chunk_index"
)

// UnknownSource is used when a chunk is missing source metadata.
const UnknownSource = "Unknown"

// Document is one ingested file after text extraction. Content is never
// empty; a file that fails extraction produces no Document at all.
type Document struct {
	Content  string
	Metadata map[string]string
}

// Source returns the originating filename, or UnknownSource.
func (d Document) Source() string {
	if s := d.Metadata[MetaSource]; s != "" {
		return s
	}
	return UnknownSource
}

// Chunk is a bounded slice of a Document's content, the unit of retrieval.
// It carries the parent Document's metadata forward unchanged, plus its
// index within the document and, for paged formats, a page number.
type Chunk struct {
	ID       string
	Content  string
	Index    int
	Metadata map[string]string
}

// Source returns the originating filename, or UnknownSource.
func (c Chunk) Source() string {
	if s := c.Metadata[MetaSource]; s != "" {
		return s
	}
	return UnknownSource
}

// Page returns the page number this chunk starts on, if known.
func (c Chunk) Page() (int, bool) {
	raw, ok := c.Metadata[MetaPage]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Citation identifies where an answer fragment came from. Page is "N/A"
// when the source format has no page numbers.
type Citation struct {
	Document string `json:"document"`
	Page     string `json:"page"`
}

// QueryResult is the always-well-formed outcome of a retrieval-QA query.
type QueryResult struct {
	Answer            string     `json:"answer"`
	Sources           []Citation `json:"sources"`
	RelevantDocuments []Chunk    `json:"relevant_documents"`
}

// ExpirationFinding flags a contract expiring inside the report window.
type ExpirationFinding struct {
	Document            string
	Date                time.Time
	DaysUntilExpiration int
}

// ConflictFinding reports a company recorded with more than one address.
// Addresses maps each distinct address to the documents it appeared in;
// Documents is the deduplicated set of every involved document.
type ConflictFinding struct {
	Company   string
	Issue     string
	Addresses map[string][]string
	Documents []string
}
