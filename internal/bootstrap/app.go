package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"knowledge-assistant/internal/ai"
	"knowledge-assistant/internal/app"
	"knowledge-assistant/internal/cache"
	"knowledge-assistant/internal/config"
	"knowledge-assistant/internal/ingest"
	"knowledge-assistant/internal/model"
	mysqlClient "knowledge-assistant/internal/platform/mysql"
	redisClient "knowledge-assistant/internal/platform/redis"
	"knowledge-assistant/internal/repository"
	"knowledge-assistant/internal/vectorstore"
	"knowledge-assistant/internal/worker"
)

type App struct {
	Config      *config.Config
	MySQL       *gorm.DB
	Redis       *redis.Client
	VectorStore *vectorstore.Store
	Launcher    *worker.Launcher

	DocumentService *app.DocumentService
	QueryService    *app.QueryService

	StartedAt time.Time
}

// New wires the process. Config validation runs first, so a missing
// embedding credential aborts startup before any dependency is touched.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.User{}, &model.Document{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	store, err := vectorstore.Open(cfg.Vector.Dir)
	if err != nil {
		return nil, err
	}

	launcher, err := worker.NewLauncher(cfg.Ingest.PoolSize)
	if err != nil {
		return nil, err
	}

	embeddingClient := ai.NewEmbeddingClient(ai.EmbeddingConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.EmbeddingModel,
	})
	chatClient := ai.NewChatClient(ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})

	documentRepo := repository.NewDocumentRepository(mysqlDB)
	documentCache := cache.NewDocumentCache(redisCli,
		time.Duration(cfg.Redis.StatusTTLSeconds)*time.Second)

	pipeline := ingest.NewPipeline(
		documentRepo,
		embeddingClient,
		store,
		cfg.Media.Root,
		ingest.WithChunking(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		ingest.WithEmbeddingBatchSize(cfg.Ingest.EmbeddingBatchSize),
		ingest.WithStatusListener(func(documentID uint, _ model.IngestionStatus) {
			// Drop the cached record so pollers see the terminal status
			// immediately instead of after the TTL.
			invalidateCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = documentCache.Invalidate(invalidateCtx, documentID)
		}),
	)

	documentService := app.NewDocumentService(documentRepo, pipeline, launcher, documentCache, cfg.Media.Root)
	queryService := app.NewQueryService(embeddingClient, store, chatClient)

	return &App{
		Config:          cfg,
		MySQL:           mysqlDB,
		Redis:           redisCli,
		VectorStore:     store,
		Launcher:        launcher,
		DocumentService: documentService,
		QueryService:    queryService,
		StartedAt:       time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Launcher != nil {
		a.Launcher.Release()
	}
	if a.VectorStore != nil {
		if err := a.VectorStore.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
