package service

import (
	"context"
	"time"

	"github.com/solvesync/solvesync/internal/ai"
	"github.com/solvesync/solvesync/internal/bridge"
	"github.com/solvesync/solvesync/internal/model"
	"github.com/solvesync/solvesync/internal/repository"
	"github.com/solvesync/solvesync/internal/schema"
)

// 外部协作方的最小接口集合（ISP）

// Store 文档库客户端
type Store interface {
	QueryByURL(ctx context.Context, databaseID, url string) (*model.Record, error)
	QueryAllPages(ctx context.Context, databaseID string) ([]model.Record, error)
	CreatePage(ctx context.Context, databaseID string, artifact *model.SubmissionArtifact) (*model.Record, error)
	CountSolutions(ctx context.Context, pageID string) (int, error)
	AppendSolution(ctx context.Context, pageID string, artifact *model.SubmissionArtifact, n int) (*model.Record, error)
}

// Analyzer 解法分析器
type Analyzer interface {
	Analyze(ctx context.Context, req *ai.AnalyzeRequest) (*model.Analysis, error)
}

// Notifier 用户可见通知（fire-and-forget，不依赖返回值）
type Notifier interface {
	Notify(title, message string)
}

// StatsCache 统计快照缓存
type StatsCache interface {
	GetStatsCache(ctx context.Context) (*repository.CachedStats, error)
	SetStatsCache(ctx context.Context, cached *repository.CachedStats) error
	InvalidateStats(ctx context.Context) error
}

// SyncLogStore 同步日志
type SyncLogStore interface {
	Create(ctx context.Context, log *schema.SyncLog) error
}

// CodeProvider 向浏览器助手请求编辑器代码（超时降级为空结果）
type CodeProvider interface {
	RequestCode(ctx context.Context, timeout time.Duration) bridge.CodeResult
}

// Memory 解题记忆（可选）
type Memory interface {
	IndexRecord(ctx context.Context, artifact *model.SubmissionArtifact)
	Similar(ctx context.Context, problem *model.Problem) []string
}
