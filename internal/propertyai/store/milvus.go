package store

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"
	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/propertyai/internal/model"
	"github.com/kart-io/propertyai/pkg/component/milvus"
	"github.com/kart-io/propertyai/pkg/llm"
	"github.com/kart-io/propertyai/pkg/utils/json"
)

// maxContentLen bounds the content VarChar column.
const maxContentLen = 65535

// milvusClient is the slice of the Milvus component the store uses.
type milvusClient interface {
	HasCollection(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, schema *milvus.CollectionSchema) error
	DropCollection(ctx context.Context, collectionName string) error
	Insert(ctx context.Context, collectionName string, data *milvus.InsertData) ([]int64, error)
	Search(ctx context.Context, collectionName string, vector []float32, topK int, outputFields []string) ([]milvus.SearchResult, error)
	Scan(ctx context.Context, collectionName, expr string, outputFields []string) ([]map[string]any, error)
	Close(ctx context.Context) error
}

// MilvusStore is the Milvus-backed VectorStore.
type MilvusStore struct {
	client     milvusClient
	embedder   llm.EmbeddingProvider
	collection string
}

// NewMilvusStore creates a MilvusStore over an established client.
func NewMilvusStore(client milvusClient, embedder llm.EmbeddingProvider, collection string) *MilvusStore {
	return &MilvusStore{
		client:     client,
		embedder:   embedder,
		collection: collection,
	}
}

func (s *MilvusStore) schema(dimension int) *milvus.CollectionSchema {
	return &milvus.CollectionSchema{
		Name:        s.collection,
		Description: "property listing and guideline chunks",
		Dimension:   dimension,
		MetaFields: []milvus.MetaField{
			{Name: "doc_type", DataType: entity.FieldTypeVarChar, MaxLen: 32},
			{Name: "source", DataType: entity.FieldTypeVarChar, MaxLen: 255},
			{Name: "content", DataType: entity.FieldTypeVarChar, MaxLen: maxContentLen},
			{Name: "metadata", DataType: entity.FieldTypeVarChar, MaxLen: 4096},
		},
	}
}

// ResetAndIngest drops the collection, recreates it sized to the embedder's
// output, and inserts chunks in embedding batches.
func (s *MilvusStore) ResetAndIngest(ctx context.Context, chunks []model.Document) (int, error) {
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no chunks to ingest")
	}

	exists, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return 0, err
	}
	if exists {
		if err := s.client.DropCollection(ctx, s.collection); err != nil {
			return 0, err
		}
		logger.Infow("dropped existing collection", "collection", s.collection)
	}

	created := false
	total := 0
	for start := 0; start < len(chunks); start += IngestBatchSize {
		end := start + IngestBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		embeddings, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return total, fmt.Errorf("failed to embed batch at %d: %w", start, err)
		}
		if len(embeddings) != len(batch) || len(embeddings[0]) == 0 {
			return total, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(batch))
		}

		if !created {
			if err := s.client.CreateCollection(ctx, s.schema(len(embeddings[0]))); err != nil {
				return total, err
			}
			created = true
		}

		data := &milvus.InsertData{
			Embeddings: embeddings,
			Metadata: map[string][]any{
				"doc_type": make([]any, len(batch)),
				"source":   make([]any, len(batch)),
				"content":  make([]any, len(batch)),
				"metadata": make([]any, len(batch)),
			},
		}
		for i, c := range batch {
			metaJSON, err := json.Marshal(c.Metadata)
			if err != nil {
				return total, fmt.Errorf("failed to marshal metadata: %w", err)
			}
			content := c.Content
			if len(content) > maxContentLen {
				content = content[:maxContentLen]
			}
			data.Metadata["doc_type"][i] = c.DocType()
			data.Metadata["source"][i] = c.Metadata[model.MetaSource]
			data.Metadata["content"][i] = content
			data.Metadata["metadata"][i] = string(metaJSON)
		}

		if _, err := s.client.Insert(ctx, s.collection, data); err != nil {
			return total, err
		}
		total += len(batch)
	}

	logger.Infow("ingested chunks", "collection", s.collection, "count", total)
	return total, nil
}

// Query embeds text and searches the collection.
func (s *MilvusStore) Query(ctx context.Context, text string, k int) ([]model.RetrievedMatch, error) {
	k = ClampTopK(k)
	if k == 0 {
		return nil, nil
	}

	// Before the first successful ingest the collection does not exist;
	// an empty index answers with no matches, not an error.
	exists, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	vector, err := s.embedder.EmbedSingle(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.client.Search(ctx, s.collection, vector, k, []string{"doc_type", "source", "content", "metadata"})
	if err != nil {
		return nil, err
	}

	matches := make([]model.RetrievedMatch, 0, len(results))
	for _, r := range results {
		content, _ := r.Metadata["content"].(string)
		metadata := decodeMetadata(r.Metadata)
		matches = append(matches, model.RetrievedMatch{
			Document: model.Document{Content: content, Metadata: metadata},
			Score:    ClampScore(r.Score),
		})
	}
	return matches, nil
}

// decodeMetadata restores the chunk metadata map from the packed JSON
// column, falling back to the flat columns when the JSON is unusable.
func decodeMetadata(raw map[string]any) map[string]string {
	if metaJSON, ok := raw["metadata"].(string); ok && metaJSON != "" {
		var metadata map[string]string
		if err := json.Unmarshal([]byte(metaJSON), &metadata); err == nil {
			return metadata
		}
	}

	metadata := make(map[string]string, 2)
	if docType, ok := raw["doc_type"].(string); ok {
		metadata[model.MetaDocType] = docType
	}
	if source, ok := raw["source"].(string); ok {
		metadata[model.MetaSource] = source
	}
	return metadata
}

// Stats scans doc_type and source columns and aggregates counts.
func (s *MilvusStore) Stats(ctx context.Context) (*model.IndexStats, error) {
	exists, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return nil, err
	}
	stats := &model.IndexStats{
		DocTypes: make(map[string]int),
		Sources:  make(map[string]int),
	}
	if !exists {
		return stats, nil
	}

	rows, err := s.client.Scan(ctx, s.collection, "id >= 0", []string{"doc_type", "source"})
	if err != nil {
		return nil, err
	}

	stats.TotalDocuments = len(rows)
	for _, row := range rows {
		if docType, ok := row["doc_type"].(string); ok {
			stats.DocTypes[docType]++
		}
		if source, ok := row["source"].(string); ok {
			stats.Sources[source]++
		}
	}
	return stats, nil
}

// Close closes the Milvus connection.
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

var _ VectorStore = (*MilvusStore)(nil)
