// Package model defines the data models shared by the PropertyAI service layers.
package model

// Well-known metadata keys attached to indexed documents.
const (
	MetaSource   = "source"
	MetaDocType  = "doc_type"
	MetaRowID    = "row_id"
	MetaChunkID  = "chunk_id"
	MetaDocIndex = "doc_index"
)

// Document types stored in the retrieval index.
const (
	DocTypeProperty   = "property"
	DocTypeGuidelines = "guidelines"
)

// Document is a unit of indexable text plus its structured metadata.
// Content is never empty; records with empty content are dropped before
// they reach the index. A Document is immutable after creation.
type Document struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// DocType returns the document type, or an empty string when unset.
func (d *Document) DocType() string {
	return d.Metadata[MetaDocType]
}

// IsProperty reports whether the document is a tabular property row.
func (d *Document) IsProperty() bool {
	return d.DocType() == DocTypeProperty
}

// RetrievedMatch pairs a document with its similarity score in [0,1].
// Higher scores are more relevant.
type RetrievedMatch struct {
	Document Document `json:"document"`
	Score    float32  `json:"score"`
}

// PriceRange is a currency constraint normalized to the base unit (rupees).
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// QueryFilter holds the optional structured constraints extracted from a raw
// query. Each field is independent; the zero value means "no constraint".
// A QueryFilter is computed per query and never persisted.
type QueryFilter struct {
	Price    *PriceRange `json:"price,omitempty"`
	BHK      string      `json:"bhk,omitempty"`
	Location string      `json:"location,omitempty"`
}

// Empty reports whether no constraint was extracted.
func (f *QueryFilter) Empty() bool {
	return f == nil || (f.Price == nil && f.BHK == "" && f.Location == "")
}

// IndexStats aggregates counts over the currently indexed documents.
type IndexStats struct {
	TotalDocuments int            `json:"total_documents"`
	DocTypes       map[string]int `json:"doc_types"`
	Sources        map[string]int `json:"sources"`
}

// MatchSource is the user-facing projection of a retrieved match.
type MatchSource struct {
	Source  string  `json:"source"`
	DocType string  `json:"doc_type"`
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

// QueryResult is the answer to one question plus its grounding sources.
type QueryResult struct {
	Answer  string        `json:"answer"`
	Sources []MatchSource `json:"sources"`
}
