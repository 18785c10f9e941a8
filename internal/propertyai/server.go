package propertyai

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/propertyai/internal/propertyai/biz"
	"github.com/kart-io/propertyai/internal/propertyai/handler"
	"github.com/kart-io/propertyai/internal/propertyai/ingest"
	"github.com/kart-io/propertyai/internal/propertyai/router"
	"github.com/kart-io/propertyai/internal/propertyai/store"
	"github.com/kart-io/propertyai/pkg/component/milvus"
	"github.com/kart-io/propertyai/pkg/llm"
	"github.com/kart-io/propertyai/pkg/server"
)

// Run starts the PropertyAI service with the given options and blocks until
// shutdown.
func Run(opts *Options) error {
	// 1. Initialize the logger.
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting PropertyAI service...")

	ctx := context.Background()

	// 2. Initialize the embedding provider.
	embedder, err := llm.NewEmbeddingProvider(opts.Embedding.Provider, opts.Embedding.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized", "provider", embedder.Name(), "model", opts.Embedding.Model)

	// 3. Initialize the vector store.
	var vs store.VectorStore
	switch opts.StoreDriver {
	case StoreDriverMilvus:
		milvusClient, err := milvus.New(opts.Milvus)
		if err != nil {
			return fmt.Errorf("failed to initialize milvus: %w", err)
		}
		defer milvusClient.Close(context.Background())
		vs = store.NewMilvusStore(milvusClient, embedder, opts.Milvus.Collection)
		logger.Infow("Milvus vector store initialized", "address", opts.Milvus.Address, "collection", opts.Milvus.Collection)
	case StoreDriverMemory:
		vs = store.NewMemoryStore(embedder)
		logger.Info("In-memory vector store initialized")
	default:
		return fmt.Errorf("unknown store driver %q", opts.StoreDriver)
	}

	// 4. Initialize the answer cache.
	var redisClient *goredis.Client
	if opts.Redis.Enabled {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         fmt.Sprintf("%s:%d", opts.Redis.Host, opts.Redis.Port),
			Password:     opts.Redis.Password,
			DB:           opts.Redis.Database,
			MaxRetries:   opts.Redis.MaxRetries,
			PoolSize:     opts.Redis.PoolSize,
			DialTimeout:  opts.Redis.DialTimeout,
			ReadTimeout:  opts.Redis.ReadTimeout,
			WriteTimeout: opts.Redis.WriteTimeout,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warnw("Redis unreachable, running without answer cache", "error", err.Error())
			redisClient = nil
		} else {
			logger.Infow("Redis answer cache initialized", "host", opts.Redis.Host, "ttl", opts.Redis.TTL.String())
		}
	}
	cache := biz.NewQueryCache(redisClient, &biz.QueryCacheConfig{
		Enabled:   opts.Redis.Enabled && redisClient != nil,
		TTL:       opts.Redis.TTL,
		KeyPrefix: "propertyai:query:",
	})

	// 5. Initialize the generation tier chain.
	tiers, err := buildGeneratorTiers(opts)
	if err != nil {
		return err
	}
	composer := biz.NewComposer(tiers)

	// 6. Initialize the biz layer.
	chunker := ingest.NewChunker(opts.ChunkSize, opts.ChunkOverlap)
	service := biz.NewQAService(vs, chunker, composer, cache)
	logger.Info("QA service initialized")

	// 7. Initialize the handler layer and routes.
	qaHandler := handler.NewQAHandler(service)
	engine := router.New(qaHandler, int(opts.HTTP.MaxUploadMB))

	// 8. Start the HTTP server.
	logger.Infow("PropertyAI service is ready", "addr", opts.HTTP.Addr)
	return server.New(opts.HTTP, engine).Run(ctx)
}

// buildGeneratorTiers constructs the network generation tiers in order. The
// secondary tier is skipped when no provider is configured.
func buildGeneratorTiers(opts *Options) ([]biz.GeneratorTier, error) {
	primary, err := llm.NewChatProvider(opts.Generator.Primary.Provider, opts.Generator.Primary.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize primary generator: %w", err)
	}
	tiers := []biz.GeneratorTier{{Name: "primary", Provider: primary}}

	if opts.Generator.Secondary.Provider != "" {
		secondary, err := llm.NewChatProvider(opts.Generator.Secondary.Provider, opts.Generator.Secondary.ToConfigMap())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize secondary generator: %w", err)
		}
		tiers = append(tiers, biz.GeneratorTier{Name: "secondary", Provider: secondary})
	}
	return tiers, nil
}
