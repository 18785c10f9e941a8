// Package main is the entry point for the PropertyAI service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/propertyai/internal/propertyai"

	// Register LLM providers.
	_ "github.com/kart-io/propertyai/pkg/llm/gemini"
	_ "github.com/kart-io/propertyai/pkg/llm/ollama"
	_ "github.com/kart-io/propertyai/pkg/llm/openai"
)

func main() {
	propertyai.NewApp().Run()
}
