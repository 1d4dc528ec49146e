// finchat-ingest builds the news vector index from the CSV corpus without
// starting the console bot.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fincore-labs/finchat/internal/config"
	dbRedis "github.com/fincore-labs/finchat/internal/db/redis"
	logpkg "github.com/fincore-labs/finchat/internal/logger"
	"github.com/fincore-labs/finchat/internal/metrics"
	"github.com/fincore-labs/finchat/internal/repository/embcache"
	indexrepo "github.com/fincore-labs/finchat/internal/repository/index"
	"github.com/fincore-labs/finchat/internal/transport"
	ingestuc "github.com/fincore-labs/finchat/internal/usecase/ingest"
	"github.com/fincore-labs/finchat/internal/version"
)

func main() {
	rebuild := flag.Bool("rebuild", false, "drop the collection and re-ingest from scratch")
	csvPath := flag.String("csv", "", "override the corpus CSV path from config")
	flag.Parse()

	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if *csvPath != "" {
		cfg.Corpus.CSVPath = *csvPath
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting finchat ingest",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("collection", cfg.RAG.Collection),
		zap.String("csv_path", cfg.Corpus.CSVPath),
		zap.Bool("rebuild", *rebuild),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	readinessTimeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(context.Background(), readinessTimeout); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	metrics.Register()

	baseEmbedder, err := transport.NewEmbedder(cfg.Embedding, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	embedder := embcache.New(baseEmbedder, store, cfg.Index.KeyPrefix, metrics.EmbeddingCacheTotal, logger)

	indexRepo := indexrepo.New(store, cfg.Index.KeyPrefix, cfg.Embedding.Dimensions)
	if cfg.Index.Algorithm == "hnsw" {
		indexRepo = indexRepo.WithHNSW(indexrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ingester := ingestuc.New(embedder, indexRepo, cfg.RAG.Collection, cfg.Corpus.CSVPath, cfg.Index.BatchSize, logger)
	if err := ingester.Run(ctx, *rebuild); err != nil {
		logger.Fatal("Ingest failed", zap.Error(err))
	}

	logger.Info("Ingest completed")
}
