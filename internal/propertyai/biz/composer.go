package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/propertyai/internal/model"
	"github.com/kart-io/propertyai/internal/propertyai/metrics"
	"github.com/kart-io/propertyai/pkg/llm"
)

const (
	// GenerationTimeout bounds each network generation tier.
	GenerationTimeout = 30 * time.Second

	// minAnswerLength is the shortest trimmed response accepted from a
	// network tier. Anything shorter is treated as a failed generation.
	minAnswerLength = 50

	// contextSnippetLen caps each retrieved chunk in the prompt.
	contextSnippetLen = 400

	// LocalTier names the deterministic fallback in metrics and responses.
	LocalTier = "local"
)

const systemPrompt = `You are a real estate assistant answering questions about property listings and buyer guidelines. Ground every statement in the provided context. If the context does not contain the answer, say so plainly. Keep answers concise and mention concrete listings by title when relevant.`

// GeneratorTier pairs a chat provider with a name used in logs and metrics.
type GeneratorTier struct {
	Name     string
	Provider llm.ChatProvider
}

// Composer turns retrieved context into an answer. Network tiers are tried
// in order; the deterministic local composer always succeeds last.
type Composer struct {
	tiers []GeneratorTier
	local *LocalComposer
}

// NewComposer creates a Composer with the given tier chain. The chain may be
// empty, in which case every answer is composed locally.
func NewComposer(tiers []GeneratorTier) *Composer {
	return &Composer{
		tiers: tiers,
		local: NewLocalComposer(),
	}
}

// Compose produces an answer for the query from the retrieved matches and
// reports which tier produced it.
func (c *Composer) Compose(ctx context.Context, query string, matches []model.RetrievedMatch) (string, string) {
	if len(matches) == 0 {
		return c.local.ComposeEmpty(query), LocalTier
	}

	prompt := buildPrompt(query, matches)

	for _, tier := range c.tiers {
		if tier.Provider == nil {
			continue
		}

		tierCtx, cancel := context.WithTimeout(ctx, GenerationTimeout)
		startedAt := time.Now()
		answer, err := tier.Provider.Generate(tierCtx, prompt, systemPrompt)
		cancel()

		if err != nil {
			metrics.Get().RecordGeneration(tier.Name, time.Since(startedAt), err)
			logger.Warnw("generation tier failed", "tier", tier.Name, "error", err.Error())
			continue
		}

		answer = strings.TrimSpace(answer)
		if len(answer) <= minAnswerLength {
			metrics.Get().RecordGeneration(tier.Name, time.Since(startedAt), fmt.Errorf("answer too short: %d chars", len(answer)))
			logger.Warnw("generation tier returned degenerate answer", "tier", tier.Name, "length", len(answer))
			continue
		}

		metrics.Get().RecordGeneration(tier.Name, time.Since(startedAt), nil)
		return answer, tier.Name
	}

	startedAt := time.Now()
	answer := c.local.Compose(query, matches)
	metrics.Get().RecordGeneration(LocalTier, time.Since(startedAt), nil)
	return answer, LocalTier
}

// buildPrompt formats the retrieved context and the question. Each chunk is
// truncated so a handful of large chunks cannot crowd out the question.
func buildPrompt(query string, matches []model.RetrievedMatch) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	for i, m := range matches {
		snippet := excerpt(m.Document.Content, contextSnippetLen)
		fmt.Fprintf(&sb, "[%d] %s (%s): %s\n", i+1, contextLabel(&m.Document), m.Document.Metadata[model.MetaSource], snippet)
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(query)
	sb.WriteString("\nAnswer:")
	return sb.String()
}

func contextLabel(doc *model.Document) string {
	if doc.IsProperty() {
		return "Property Data"
	}
	return "Guidelines"
}
