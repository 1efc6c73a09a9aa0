package bootstrap

import (
	"log/slog"

	"github.com/solvesync/solvesync/internal/ai"
	"github.com/solvesync/solvesync/internal/handler"
	"github.com/solvesync/solvesync/internal/notion"
	"github.com/solvesync/solvesync/internal/pkg/config"
	"github.com/solvesync/solvesync/internal/platform"
	"github.com/solvesync/solvesync/internal/repository"
	"github.com/solvesync/solvesync/internal/service"
)

// Core 持有跨二进制共享的核心依赖
type Core struct {
	Cfg      *config.Config
	DB       *repository.Database
	Registry *platform.Registry

	Repos struct {
		Cache   *repository.CacheRepository
		SyncLog *repository.SyncLogRepository
	}

	Clients struct {
		Notion *notion.Client
		Gemini *ai.GeminiClient
	}

	Services struct {
		Resolver *service.DuplicateResolver
		Writer   *service.RecordWriter
		Stats    *service.StatsService
		Sync     *service.SyncService
		Memory   *service.MemoryService // 可为 nil
	}
}

// NewCore 构建核心依赖（不启动监控和 HTTP）
func NewCore(cfgPath string) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	config.SetupLogger(cfg.App.LogLevel)

	db, err := repository.NewDatabase(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}

	c := &Core{Cfg: cfg, DB: db, Registry: platform.DefaultRegistry()}

	// Repos
	c.Repos.Cache = repository.NewCacheRepository(db.DB)
	c.Repos.SyncLog = repository.NewSyncLogRepository(db.DB)

	// Clients
	c.Clients.Notion = notion.NewClient(&notion.Config{
		APIKey:  cfg.Notion.APIKey,
		BaseURL: cfg.Notion.BaseURL,
	})
	c.Clients.Gemini = ai.NewGeminiClient(&ai.GeminiConfig{
		APIKey:         cfg.Gemini.APIKey,
		BaseURL:        cfg.Gemini.BaseURL,
		Model:          cfg.Gemini.Model,
		EmbeddingModel: cfg.Gemini.EmbeddingModel,
	})

	// Services
	c.Services.Resolver = service.NewDuplicateResolver(c.Clients.Notion, cfg)
	c.Services.Writer = service.NewRecordWriter(c.Clients.Notion, cfg)
	c.Services.Stats = service.NewStatsService(c.Clients.Notion, cfg, c.Repos.Cache)
	c.Services.Sync = service.NewSyncService(
		cfg,
		c.Registry,
		c.Services.Resolver,
		c.Services.Writer,
		ai.NewSolutionAnalyzer(c.Clients.Gemini),
		c.Services.Stats,
		handler.LogNotifier{},
		c.Repos.SyncLog,
	)

	// 解题记忆按需启用
	if cfg.Memory.Enabled {
		memory, err := service.NewMemoryService(c.Clients.Gemini, &service.MemoryConfig{
			StoragePath: cfg.Memory.StoragePath,
		})
		if err != nil {
			slog.Warn("解题记忆初始化失败，已禁用", "error", err)
		} else {
			c.Services.Memory = memory
			c.Services.Sync.SetMemory(memory)
		}
	}

	return c, nil
}

// Close 关闭核心依赖资源
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
