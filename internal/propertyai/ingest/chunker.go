package ingest

import (
	"fmt"
	"strings"

	"github.com/kart-io/propertyai/internal/model"
)

const (
	// DefaultChunkSize is the window size in words.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is how many words consecutive windows share.
	DefaultChunkOverlap = 200
)

// Chunker splits documents into overlapping word windows. Documents at or
// under the window size pass through as a single chunk.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a Chunker. Non-positive size falls back to the default;
// an overlap that is negative or not smaller than size falls back too.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split chunks one document. Each chunk keeps a copy of the parent metadata
// plus its own chunk index.
func (c *Chunker) Split(doc model.Document) []model.Document {
	words := strings.Fields(doc.Content)
	if len(words) == 0 {
		return nil
	}

	if len(words) <= c.size {
		return []model.Document{withChunkID(doc, doc.Content, 0)}
	}

	stride := c.size - c.overlap
	var chunks []model.Document
	for start, idx := 0, 0; start < len(words); start, idx = start+stride, idx+1 {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, withChunkID(doc, strings.Join(words[start:end], " "), idx))
	}
	return chunks
}

// SplitAll chunks a batch of documents, tagging each chunk with the index of
// its parent document.
func (c *Chunker) SplitAll(docs []model.Document) []model.Document {
	var out []model.Document
	for i, doc := range docs {
		for _, chunk := range c.Split(doc) {
			chunk.Metadata[model.MetaDocIndex] = fmt.Sprintf("%d", i)
			out = append(out, chunk)
		}
	}
	return out
}

func withChunkID(parent model.Document, content string, idx int) model.Document {
	metadata := make(map[string]string, len(parent.Metadata)+2)
	for k, v := range parent.Metadata {
		metadata[k] = v
	}
	metadata[model.MetaChunkID] = fmt.Sprintf("%d", idx)
	return model.Document{Content: content, Metadata: metadata}
}
