package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fincore-labs/finchat/internal/config"
	dbRedis "github.com/fincore-labs/finchat/internal/db/redis"
	"github.com/fincore-labs/finchat/internal/domain"
	logpkg "github.com/fincore-labs/finchat/internal/logger"
	"github.com/fincore-labs/finchat/internal/metrics"
	"github.com/fincore-labs/finchat/internal/repository/embcache"
	indexrepo "github.com/fincore-labs/finchat/internal/repository/index"
	"github.com/fincore-labs/finchat/internal/transport"
	chatuc "github.com/fincore-labs/finchat/internal/usecase/chat"
	ingestuc "github.com/fincore-labs/finchat/internal/usecase/ingest"
	retrievaluc "github.com/fincore-labs/finchat/internal/usecase/retrieval"
	"github.com/fincore-labs/finchat/internal/version"
)

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"выход": true,
	"стоп":  true,
}

func main() {
	// .env is optional; explicit environment always wins
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting finchat console bot",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("collection", cfg.RAG.Collection),
		zap.Strings("db_addrs", cfg.Database.Addrs),
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
	logger.Info("Database is ready")

	metrics.Register()

	baseEmbedder, err := transport.NewEmbedder(cfg.Embedding, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	embedder := embcache.New(baseEmbedder, store, cfg.Index.KeyPrefix, metrics.EmbeddingCacheTotal, logger)

	llm, err := transport.NewChatClient(cfg.LLM, logger)
	if err != nil {
		logger.Fatal("Failed to create chat client", zap.Error(err))
	}

	indexRepo := indexrepo.New(store, cfg.Index.KeyPrefix, cfg.Embedding.Dimensions)
	if cfg.Index.Algorithm == "hnsw" {
		indexRepo = indexRepo.WithHNSW(indexrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Make sure the index is populated before taking questions.
	ingester := ingestuc.New(embedder, indexRepo, cfg.RAG.Collection, cfg.Corpus.CSVPath, cfg.Index.BatchSize, logger)
	if err := ingester.Run(ctx, false); err != nil {
		logger.Fatal("Failed to prepare the news index", zap.Error(err))
	}

	retriever := retrievaluc.New(embedder, indexRepo, cfg.RAG.Collection, logger)
	router := chatuc.New(llm, retriever, chatuc.Config{
		TopK:          cfg.RAG.TopK,
		ContextChars:  cfg.RAG.ContextChars,
		MaxToolRounds: cfg.LLM.MaxToolRounds,
	}, logger)

	if cfg.Admin.Port > 0 {
		checks := []metrics.Check{{Name: "database", Func: store.Ping}}
		if hc, ok := baseEmbedder.(domain.HealthChecker); ok {
			checks = append(checks, metrics.Check{Name: "embedding", Func: hc.HealthCheck})
		}
		adminSrv := metrics.ServeAdmin(cfg.Admin.Port, checks, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = adminSrv.Shutdown(shutdownCtx)
		}()
	}

	runConsole(ctx, router, logger)
}

// runConsole is the interactive loop. It owns stdout; logs go to stderr.
func runConsole(ctx context.Context, router *chatuc.Service, logger *zap.Logger) {
	printWelcome()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("\nВаш вопрос: ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if exitCommands[strings.ToLower(input)] {
			break
		}

		fmt.Println("\nОбрабатываю ваш запрос...")
		reply, err := router.Respond(ctx, input)
		if err != nil {
			// only context cancellation reaches here
			logger.Info("Chat loop interrupted", zap.Error(err))
			break
		}
		fmt.Printf("\nОтвет:\n%s\n", reply)
	}

	fmt.Println("\nДо свидания!")
}

func printWelcome() {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Добро пожаловать в финансового чат-бота!")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()
	fmt.Println("Я могу помочь вам с:")
	fmt.Println("  • поиском по базе российских финансовых новостей")
	fmt.Println("  • статистикой загрузки системы (CPU/память)")
	fmt.Println("  • текущим временем в Москве")
	fmt.Println()
	fmt.Println("Примеры вопросов:")
	fmt.Println("  • 'Найди новости о Сбербанке'")
	fmt.Println("  • 'Какая загрузка процессора?'")
	fmt.Println()
	fmt.Println("Для выхода напишите 'exit', 'quit', 'выход' или 'стоп'.")
}
