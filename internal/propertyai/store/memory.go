package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kart-io/logger"

	"github.com/kart-io/propertyai/internal/model"
	"github.com/kart-io/propertyai/pkg/llm"
)

// MemoryStore is an in-process VectorStore using brute-force cosine
// similarity. It backs tests and single-node deployments without Milvus.
type MemoryStore struct {
	embedder llm.EmbeddingProvider

	mu         sync.RWMutex
	chunks     []model.Document
	embeddings [][]float32
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(embedder llm.EmbeddingProvider) *MemoryStore {
	return &MemoryStore{embedder: embedder}
}

// ResetAndIngest replaces the index contents with the given chunks.
func (s *MemoryStore) ResetAndIngest(ctx context.Context, chunks []model.Document) (int, error) {
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no chunks to ingest")
	}

	embeddings := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += IngestBatchSize {
		end := start + IngestBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Content
		}
		batch, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("failed to embed batch at %d: %w", start, err)
		}
		if len(batch) != end-start {
			return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(batch), end-start)
		}
		embeddings = append(embeddings, batch...)
	}

	s.mu.Lock()
	s.chunks = append([]model.Document(nil), chunks...)
	s.embeddings = embeddings
	s.mu.Unlock()

	logger.Infow("ingested chunks into memory store", "count", len(chunks))
	return len(chunks), nil
}

// Query embeds text and returns the k nearest chunks by cosine similarity.
func (s *MemoryStore) Query(ctx context.Context, text string, k int) ([]model.RetrievedMatch, error) {
	k = ClampTopK(k)
	if k == 0 {
		return nil, nil
	}

	vector, err := s.embedder.EmbedSingle(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]model.RetrievedMatch, 0, len(s.chunks))
	for i, chunk := range s.chunks {
		matches = append(matches, model.RetrievedMatch{
			Document: chunk,
			Score:    ClampScore(cosine(vector, s.embeddings[i])),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Stats aggregates counts over the indexed chunks.
func (s *MemoryStore) Stats(ctx context.Context) (*model.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &model.IndexStats{
		TotalDocuments: len(s.chunks),
		DocTypes:       make(map[string]int),
		Sources:        make(map[string]int),
	}
	for _, chunk := range s.chunks {
		stats.DocTypes[chunk.DocType()]++
		if source, ok := chunk.Metadata[model.MetaSource]; ok {
			stats.Sources[source]++
		}
	}
	return stats, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ VectorStore = (*MemoryStore)(nil)
