package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/solvesync/solvesync/internal/model"
	"github.com/solvesync/solvesync/internal/pkg/config"
	"github.com/solvesync/solvesync/internal/repository"
)

// 统计缓存有效期
const statsCacheTTL = 5 * time.Minute

// StatsService 进度统计：按难度计数 + 连续解题天数，结果缓存 5 分钟
type StatsService struct {
	store Store
	cfg   *config.Config
	cache StatsCache
	now   func() time.Time // 测试注入
}

// NewStatsService 创建统计服务
func NewStatsService(store Store, cfg *config.Config, cache StatsCache) *StatsService {
	return &StatsService{
		store: store,
		cfg:   cfg,
		cache: cache,
		now:   time.Now,
	}
}

// GetStats 返回统计快照
// 命中未过期缓存直接返回（零次文档库调用）；force 跳过缓存强制重算
func (s *StatsService) GetStats(ctx context.Context, force bool) (*model.StatsSnapshot, error) {
	if !force {
		cached, err := s.cache.GetStatsCache(ctx)
		if err != nil {
			return nil, err
		}
		if cached != nil && s.now().Sub(cached.CachedAt()) < statsCacheTTL {
			slog.Debug("统计缓存命中")
			snapshot := cached.Snapshot
			return &snapshot, nil
		}
	}

	if err := s.cfg.RequireNotion(); err != nil {
		return nil, err
	}

	records, err := s.store.QueryAllPages(ctx, s.cfg.NotionSnapshot().DatabaseID)
	if err != nil {
		return nil, err
	}

	snapshot := Compute(records, s.now())

	// 先落缓存再返回
	if err := s.cache.SetStatsCache(ctx, &repository.CachedStats{
		Timestamp: s.now().UnixMilli(),
		Snapshot:  *snapshot,
	}); err != nil {
		slog.Warn("写入统计缓存失败", "error", err)
	}

	slog.Info("统计重算完成", "total", snapshot.Total, "streak", snapshot.Streak)
	return snapshot, nil
}

// Invalidate 删除统计缓存，下次请求触发重算
func (s *StatsService) Invalidate(ctx context.Context) {
	if err := s.cache.InvalidateStats(ctx); err != nil {
		slog.Warn("失效统计缓存失败", "error", err)
	}
}

// Compute 从全量记录计算统计快照
// 难度无法识别的记录只计入 total；没有解题日期的记录不参与连续天数
func Compute(records []model.Record, now time.Time) *model.StatsSnapshot {
	snapshot := &model.StatsSnapshot{}
	dates := make(map[string]struct{})

	for _, rec := range records {
		snapshot.Total++
		switch rec.Difficulty {
		case model.DifficultyEasy:
			snapshot.Easy++
		case model.DifficultyMedium:
			snapshot.Medium++
		case model.DifficultyHard:
			snapshot.Hard++
		}
		if rec.SolvedDate != "" {
			dates[rec.SolvedDate] = struct{}{}
		}
	}

	snapshot.Streak = streak(dates, now)
	return snapshot
}

// streak 从今天（本地日历日）向前逐日回走，遇到第一个缺口即停
// 今天没有解题记录时连续天数为 0
func streak(dates map[string]struct{}, now time.Time) int {
	count := 0
	for i := 0; ; i++ {
		expected := model.DateKey(now.AddDate(0, 0, -i))
		if _, ok := dates[expected]; !ok {
			break
		}
		count++
	}
	return count
}
