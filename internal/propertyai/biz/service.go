package biz

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/propertyai/internal/model"
	"github.com/kart-io/propertyai/internal/propertyai/ingest"
	"github.com/kart-io/propertyai/internal/propertyai/metrics"
	"github.com/kart-io/propertyai/internal/propertyai/store"
)

// ErrNoUsableDocuments is returned when every uploaded file was rejected
// during normalization.
var ErrNoUsableDocuments = errors.New("no usable documents")

// QAService ties ingestion, retrieval, generation, and caching together.
// Handlers call it; it owns no transport concerns.
type QAService struct {
	normalizer *ingest.Normalizer
	chunker    *ingest.Chunker
	store      store.VectorStore
	retriever  *Retriever
	composer   *Composer
	cache      *QueryCache
	sessions   *SessionManager
}

// IngestResult reports what one ingest run produced. Failed lists files
// that were rejected; their absence from the index does not fail the batch
// as long as at least one file was usable.
type IngestResult struct {
	Files     int           `json:"files"`
	Documents int           `json:"documents"`
	Chunks    int           `json:"chunks"`
	Failed    []FileFailure `json:"failed,omitempty"`
}

// FileFailure records why one uploaded file was not indexed.
type FileFailure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

func NewQAService(vs store.VectorStore, chunker *ingest.Chunker, composer *Composer, cache *QueryCache) *QAService {
	if chunker == nil {
		chunker = ingest.NewChunker(ingest.DefaultChunkSize, ingest.DefaultChunkOverlap)
	}
	return &QAService{
		normalizer: ingest.NewNormalizer(),
		chunker:    chunker,
		store:      vs,
		retriever:  NewRetriever(vs),
		composer:   composer,
		cache:      cache,
		sessions:   NewSessionManager(),
	}
}

// Sessions exposes the session manager to the handlers.
func (s *QAService) Sessions() *SessionManager {
	return s.sessions
}

// Ingest normalizes the files, chunks them, and rebuilds the index from
// scratch. Cached answers are flushed afterward since their grounding is gone.
func (s *QAService) Ingest(ctx context.Context, paths []string) (*IngestResult, error) {
	if len(paths) == 0 {
		err := fmt.Errorf("no files to ingest")
		metrics.Get().RecordIngest(0, 0, err)
		return nil, err
	}

	var docs []model.Document
	var failed []FileFailure
	for _, path := range paths {
		name := filepath.Base(path)
		fileDocs, err := s.normalizer.NormalizeFile(path, name)
		if err != nil {
			logger.Warnw("skipping file that failed to normalize", "file", name, "error", err.Error())
			failed = append(failed, FileFailure{File: name, Error: err.Error()})
			continue
		}
		docs = append(docs, fileDocs...)
	}
	if len(docs) == 0 {
		err := fmt.Errorf("%w in %d file(s)", ErrNoUsableDocuments, len(paths))
		metrics.Get().RecordIngest(len(paths), 0, err)
		return nil, err
	}

	chunks := s.chunker.SplitAll(docs)
	ingested, err := s.store.ResetAndIngest(ctx, chunks)
	if err != nil {
		metrics.Get().RecordIngest(len(paths), 0, err)
		return nil, fmt.Errorf("index documents: %w", err)
	}

	if err := s.cache.Clear(ctx); err != nil {
		logger.Warnw("failed to clear query cache after ingest", "error", err.Error())
	}

	metrics.Get().RecordIngest(len(paths), ingested, nil)
	logger.Infow("ingest complete",
		"files", len(paths), "failed", len(failed), "documents", len(docs), "chunks", ingested)

	return &IngestResult{
		Files:     len(paths) - len(failed),
		Documents: len(docs),
		Chunks:    ingested,
		Failed:    failed,
	}, nil
}

// Query answers one question. Cached answers short-circuit retrieval and
// generation entirely.
func (s *QAService) Query(ctx context.Context, question string) (*model.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		err := fmt.Errorf("question is empty")
		metrics.Get().RecordQuery(false, err)
		return nil, err
	}

	if cached, err := s.cache.Get(ctx, question); err == nil && cached != nil {
		metrics.Get().RecordQuery(true, nil)
		return cached, nil
	}

	matches, filter, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		// The query surface degrades to a rendered message rather than a
		// failed request; the error still lands in logs and counters.
		metrics.Get().RecordQuery(false, err)
		logger.Errorw("retrieval failed, returning degraded answer", "error", err.Error())
		return &model.QueryResult{
			Answer: "Sorry, I ran into a problem searching the indexed documents. Please try again in a moment.",
		}, nil
	}

	answer, tier := s.composer.Compose(ctx, question, matches)

	result := &model.QueryResult{
		Answer:  answer,
		Sources: toSources(matches),
	}

	if err := s.cache.Set(ctx, question, result); err != nil {
		logger.Warnw("failed to cache query result", "error", err.Error())
	}

	metrics.Get().RecordQuery(false, nil)
	logger.Infow("answered query",
		"tier", tier,
		"matches", len(matches),
		"filtered", !filter.Empty(),
		"answer_length", len(answer))

	return result, nil
}

// QueryWithSession answers a question and records both turns on the session.
func (s *QAService) QueryWithSession(ctx context.Context, sessionID, question string) (*model.QueryResult, error) {
	if _, err := s.sessions.Get(sessionID); err != nil {
		return nil, err
	}

	result, err := s.Query(ctx, question)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.AppendMessage(sessionID, model.ChatRoleUser, question); err != nil {
		return nil, err
	}
	if err := s.sessions.AppendMessage(sessionID, model.ChatRoleAssistant, result.Answer); err != nil {
		return nil, err
	}
	return result, nil
}

// Stats aggregates index, cache, and runtime counters.
func (s *QAService) Stats(ctx context.Context) (map[string]interface{}, error) {
	indexStats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("index stats: %w", err)
	}

	cacheStats, err := s.cache.GetStats(ctx)
	if err != nil {
		logger.Warnw("failed to read cache stats", "error", err.Error())
		cacheStats = map[string]interface{}{"enabled": false, "error": err.Error()}
	}

	return map[string]interface{}{
		"index":    indexStats,
		"cache":    cacheStats,
		"runtime":  metrics.Get().Stats(),
		"sessions": s.sessions.Count(),
	}, nil
}

// Suggestions returns sample questions shown to a user before they type.
func (s *QAService) Suggestions() []string {
	return []string{
		"Show me 2BHK apartments under ₹80 lakhs in Adyar",
		"What properties are available in Velachery?",
		"What documents should I verify before buying a flat?",
		"Are there 3BHK options in Anna Nagar under 1.5 crores?",
		"How is stamp duty calculated?",
	}
}

func toSources(matches []model.RetrievedMatch) []model.MatchSource {
	sources := make([]model.MatchSource, 0, len(matches))
	for _, m := range matches {
		content := truncateRunes(m.Document.Content, contextSnippetLen)
		sources = append(sources, model.MatchSource{
			Source:  m.Document.Metadata[model.MetaSource],
			DocType: m.Document.DocType(),
			Content: content,
			Score:   m.Score,
		})
	}
	return sources
}
