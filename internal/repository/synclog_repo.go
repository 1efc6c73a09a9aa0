package repository

import (
	"context"
	"fmt"

	"github.com/solvesync/solvesync/internal/schema"
	"gorm.io/gorm"
)

// SyncLogRepository 同步日志仓储
type SyncLogRepository struct {
	db *gorm.DB
}

// NewSyncLogRepository 创建同步日志仓储
func NewSyncLogRepository(db *gorm.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// Create 记录一次保存结果
func (r *SyncLogRepository) Create(ctx context.Context, log *schema.SyncLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("写入同步日志失败: %w", err)
	}
	return nil
}

// Recent 按时间倒序取最近 N 条
func (r *SyncLogRepository) Recent(ctx context.Context, limit int) ([]schema.SyncLog, error) {
	if limit <= 0 {
		limit = 20
	}

	var logs []schema.SyncLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("查询同步日志失败: %w", err)
	}
	return logs, nil
}

// CountByAction 按动作统计条数
func (r *SyncLogRepository) CountByAction(ctx context.Context, action string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&schema.SyncLog{}).
		Where("action = ?", action).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计同步日志失败: %w", err)
	}
	return count, nil
}
