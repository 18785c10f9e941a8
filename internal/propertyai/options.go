// Package propertyai provides the PropertyAI service application.
package propertyai

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/propertyai/internal/propertyai/ingest"
	httpopts "github.com/kart-io/propertyai/pkg/options/http"
	llmopts "github.com/kart-io/propertyai/pkg/options/llm"
	logopts "github.com/kart-io/propertyai/pkg/options/logger"
	milvusopts "github.com/kart-io/propertyai/pkg/options/milvus"
	redisopts "github.com/kart-io/propertyai/pkg/options/redis"
)

// Store driver names.
const (
	StoreDriverMilvus = "milvus"
	StoreDriverMemory = "memory"
)

// Options contains all PropertyAI service options.
type Options struct {
	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// HTTP contains HTTP server configuration.
	HTTP *httpopts.Options `json:"http" mapstructure:"http"`

	// StoreDriver selects the vector store backend (milvus or memory).
	StoreDriver string `json:"store-driver" mapstructure:"store-driver"`

	// Milvus contains Milvus configuration, used when StoreDriver is milvus.
	Milvus *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// Redis contains the answer cache configuration.
	Redis *redisopts.Options `json:"redis" mapstructure:"redis"`

	// Embedding configures the embedding provider.
	Embedding *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// Generator configures the generation tier chain.
	Generator *GeneratorOptions `json:"generator" mapstructure:"generator"`

	// ChunkSize is the chunk window size in words.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkOverlap is the word overlap between consecutive chunks.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`
}

// GeneratorOptions holds the network generation tiers. The secondary tier
// is optional; leave its provider empty to run a single network tier before
// the local composer.
type GeneratorOptions struct {
	Primary   *llmopts.ProviderOptions `json:"primary" mapstructure:"primary"`
	Secondary *llmopts.ProviderOptions `json:"secondary" mapstructure:"secondary"`
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	secondary := llmopts.NewChatOptions()
	// The secondary tier is opt-in.
	secondary.Provider = ""

	return &Options{
		Log:         logopts.NewOptions(),
		HTTP:        httpopts.NewOptions(),
		StoreDriver: StoreDriverMilvus,
		Milvus:      milvusopts.NewOptions(),
		Redis:       redisopts.NewOptions(),
		Embedding:   llmopts.NewEmbeddingOptions(),
		Generator: &GeneratorOptions{
			Primary:   llmopts.NewChatOptions(),
			Secondary: secondary,
		},
		ChunkSize:    ingest.DefaultChunkSize,
		ChunkOverlap: ingest.DefaultChunkOverlap,
	}
}

// AddFlags adds all service flags to the given FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.Log.AddFlags(fs)
	o.HTTP.AddFlags(fs)
	o.Milvus.AddFlags(fs)
	o.Redis.AddFlags(fs)
	o.Embedding.AddFlags(fs, "embedding")
	o.Generator.Primary.AddFlags(fs, "generator", "primary")
	o.Generator.Secondary.AddFlags(fs, "generator", "secondary")

	fs.StringVar(&o.StoreDriver, "store-driver", o.StoreDriver, "Vector store backend (milvus or memory)")
	fs.IntVar(&o.ChunkSize, "chunk-size", o.ChunkSize, "Chunk window size in words")
	fs.IntVar(&o.ChunkOverlap, "chunk-overlap", o.ChunkOverlap, "Word overlap between consecutive chunks")
}

// Validate checks all options.
func (o *Options) Validate() error {
	if err := o.Log.Validate(); err != nil {
		return err
	}
	if err := o.HTTP.Validate(); err != nil {
		return err
	}

	switch o.StoreDriver {
	case StoreDriverMilvus:
		if errs := o.Milvus.Validate(); len(errs) > 0 {
			return fmt.Errorf("milvus options invalid: %v", errs)
		}
	case StoreDriverMemory:
		// No backend options needed.
	default:
		return fmt.Errorf("unknown store driver %q, expected %s or %s", o.StoreDriver, StoreDriverMilvus, StoreDriverMemory)
	}

	if err := o.Redis.Validate(); err != nil {
		return err
	}

	if errs := o.Embedding.Validate(); len(errs) > 0 {
		return fmt.Errorf("embedding options invalid: %v", errs)
	}
	if errs := o.Generator.Primary.Validate(); len(errs) > 0 {
		return fmt.Errorf("generator.primary options invalid: %v", errs)
	}
	if o.Generator.Secondary.Provider != "" {
		if errs := o.Generator.Secondary.Validate(); len(errs) > 0 {
			return fmt.Errorf("generator.secondary options invalid: %v", errs)
		}
	}

	if o.ChunkSize <= 0 {
		return fmt.Errorf("chunk-size must be positive")
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		return fmt.Errorf("chunk-overlap must be in [0, chunk-size)")
	}
	return nil
}

// Complete fills in defaults the flags left unset.
func (o *Options) Complete() error {
	if err := o.Embedding.Complete(); err != nil {
		return err
	}
	if err := o.Generator.Primary.Complete(); err != nil {
		return err
	}
	if o.Generator.Secondary.Provider != "" {
		if err := o.Generator.Secondary.Complete(); err != nil {
			return err
		}
	}
	return nil
}
