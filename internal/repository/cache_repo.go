package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/solvesync/solvesync/internal/model"
	"github.com/solvesync/solvesync/internal/schema"
	"gorm.io/gorm"
)

// 统计缓存在 KV 表中的键
const statsCacheKey = "statsCache"

// CacheRepository 持久化键值缓存仓储
type CacheRepository struct {
	db *gorm.DB
}

// NewCacheRepository 创建缓存仓储
func NewCacheRepository(db *gorm.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Get 读取键值，键不存在返回 ("", false, nil)
func (r *CacheRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var entry schema.KVEntry
	err := r.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("读取缓存失败: %w", err)
	}
	return entry.Value, true, nil
}

// Set 写入键值（存在则覆盖）
func (r *CacheRepository) Set(ctx context.Context, key, value string) error {
	entry := schema.KVEntry{Key: key, Value: value}
	if err := r.db.WithContext(ctx).Save(&entry).Error; err != nil {
		return fmt.Errorf("写入缓存失败: %w", err)
	}
	return nil
}

// Delete 删除键值，键不存在不算错误
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Delete(&schema.KVEntry{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("删除缓存失败: %w", err)
	}
	return nil
}

// CachedStats 带时间戳的统计快照缓存项
type CachedStats struct {
	Timestamp int64               `json:"timestamp"` // Unix 毫秒
	Snapshot  model.StatsSnapshot `json:"snapshot"`
}

// CachedAt 缓存写入时间
func (c *CachedStats) CachedAt() time.Time {
	return time.UnixMilli(c.Timestamp)
}

// GetStatsCache 读取统计缓存，未命中返回 nil
func (r *CacheRepository) GetStatsCache(ctx context.Context) (*CachedStats, error) {
	value, ok, err := r.Get(ctx, statsCacheKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var cached CachedStats
	if err := json.Unmarshal([]byte(value), &cached); err != nil {
		// 缓存损坏按未命中处理，下次重算覆盖
		return nil, nil
	}
	return &cached, nil
}

// SetStatsCache 写入统计缓存
func (r *CacheRepository) SetStatsCache(ctx context.Context, cached *CachedStats) error {
	b, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("序列化统计缓存失败: %w", err)
	}
	return r.Set(ctx, statsCacheKey, string(b))
}

// InvalidateStats 删除统计缓存（写路径成功后必须调用）
func (r *CacheRepository) InvalidateStats(ctx context.Context) error {
	return r.Delete(ctx, statsCacheKey)
}
