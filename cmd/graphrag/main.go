// Command graphrag runs the document question-answering server: upload,
// indexing, hybrid retrieval and query over HTTP.
package main

import (
	"context"
	"os"
	"time"

	"github.com/kataras/golog"
	"github.com/redis/go-redis/v9"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/smallnest/graphrag"
	"github.com/smallnest/graphrag/config"
	"github.com/smallnest/graphrag/embedding"
	"github.com/smallnest/graphrag/extraction"
	"github.com/smallnest/graphrag/ingest"
	"github.com/smallnest/graphrag/log"
	"github.com/smallnest/graphrag/query"
	"github.com/smallnest/graphrag/retriever"
	"github.com/smallnest/graphrag/server"
	"github.com/smallnest/graphrag/splitter"
	"github.com/smallnest/graphrag/store"
)

func main() {
	logger := log.NewGologLogger(golog.Default)
	log.SetDefaultLogger(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()

	model, err := newChatModel(cfg)
	if err != nil {
		logger.Error("chat model setup failed: %v", err)
		os.Exit(1)
	}

	embedder := newEmbedder(cfg, logger)
	vectors := newVectorStore(ctx, cfg, logger)
	graphStore := newGraphStore(cfg, logger)

	registry, err := store.NewSQLiteRegistry(cfg.RegistryPath)
	if err != nil {
		logger.Error("document registry setup failed: %v", err)
		os.Exit(1)
	}
	defer registry.Close()

	blobs, err := store.NewFSBlobStore(cfg.BlobDir)
	if err != nil {
		logger.Error("blob store setup failed: %v", err)
		os.Exit(1)
	}

	pipeline := ingest.NewPipeline(ingest.Deps{
		Blobs:     blobs,
		Registry:  registry,
		Vectors:   vectors,
		Graph:     graphStore,
		Embedder:  embedder,
		Extractor: newExtractor(cfg, model),
	},
		ingest.WithSplitter(splitter.NewTextSplitter(
			splitter.WithChunkSize(cfg.ChunkSize),
			splitter.WithChunkOverlap(cfg.ChunkOverlap),
		)),
		ingest.WithEmbedBatchSize(cfg.EmbedBatchSize),
	)

	hybrid := retriever.NewHybrid(
		retriever.NewVectorLeg(vectors, embedder, retriever.WithTopK(cfg.TopK)),
		retriever.NewGraphLeg(graphStore, model),
	)
	queries := query.NewService(hybrid, model)

	srv := server.NewServer(queries, pipeline, registry)
	if err := srv.Start(cfg.Addr); err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
}

func newChatModel(cfg *config.Config) (llms.Model, error) {
	opts := []openai.Option{openai.WithModel(cfg.ChatModel)}
	if cfg.OpenAIAPIKey != "" {
		opts = append(opts, openai.WithToken(cfg.OpenAIAPIKey))
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return openai.New(opts...)
}

// newEmbedder builds the OpenAI embedder, wrapped in a Redis cache when
// one is configured.
func newEmbedder(cfg *config.Config, logger log.Logger) graphrag.Embedder {
	var embedder graphrag.Embedder = embedding.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel)
	if cfg.RedisCache == "" {
		return embedder
	}

	opts, err := redis.ParseURL(cfg.RedisCache)
	if err != nil {
		logger.Warn("embedding cache disabled, bad redis URL: %v", err)
		return embedder
	}
	logger.Info("embedding cache enabled at %s", opts.Addr)
	return embedding.NewCachedEmbedder(embedder, redis.NewClient(opts), 24*time.Hour)
}

func newVectorStore(ctx context.Context, cfg *config.Config, logger log.Logger) graphrag.VectorStore {
	if cfg.PostgresURL == "" {
		logger.Warn("no postgres URL configured, vectors are held in memory")
		return store.NewMemoryVectorStore()
	}
	vs, err := store.NewPgVectorStore(ctx, store.PgVectorOptions{ConnString: cfg.PostgresURL})
	if err != nil {
		logger.Error("pgvector setup failed: %v", err)
		os.Exit(1)
	}
	return vs
}

func newGraphStore(cfg *config.Config, logger log.Logger) graphrag.GraphStore {
	if cfg.FalkorDBURL == "" {
		logger.Warn("no FalkorDB URL configured, graph is held in memory and graph retrieval is disabled")
		return store.NewMemoryGraph()
	}
	gs, err := store.NewFalkorDBGraph(cfg.FalkorDBURL)
	if err != nil {
		logger.Error("FalkorDB setup failed: %v", err)
		os.Exit(1)
	}
	return gs
}

func newExtractor(cfg *config.Config, model llms.Model) graphrag.TripleExtractor {
	if cfg.ExtractionStrategy == config.StrategySummary {
		return extraction.NewSummaryStrategy(model,
			extraction.WithSummaryThreshold(cfg.SummaryThreshold),
			extraction.WithSampleSize(cfg.SummarySampleSize),
		)
	}
	return extraction.NewGlobalStrategy(model, extraction.WithTextLimit(cfg.GraphTextLimit))
}
