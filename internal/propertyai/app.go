package propertyai

import (
	"github.com/kart-io/propertyai/pkg/app"
)

const (
	appName        = "propertyai"
	appDescription = `PropertyAI Document QA Service

A retrieval-augmented question answering service for real estate documents.

This server provides:
  - CSV, Excel, and PDF document ingestion with vector embeddings
  - Structured filter extraction (price, BHK, location) from natural queries
  - Semantic similarity retrieval over property listings and buyer guidelines
  - Tiered answer generation with a deterministic local fallback`
)

// NewApp creates the PropertyAI application.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(appName),
		app.WithShortDescription("PropertyAI document QA service"),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return Run(opts)
		}),
	)
}
