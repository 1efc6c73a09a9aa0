package service

import (
	"context"
	"log/slog"

	"github.com/solvesync/solvesync/internal/model"
	"github.com/solvesync/solvesync/internal/pkg/config"
)

// DuplicateResolver 查重器：按规范化 URL 判断记录是否已存在
type DuplicateResolver struct {
	store Store
	cfg   *config.Config
}

// NewDuplicateResolver 创建查重器
func NewDuplicateResolver(store Store, cfg *config.Config) *DuplicateResolver {
	return &DuplicateResolver{store: store, cfg: cfg}
}

// FindExisting 返回已存在的记录，无匹配返回 nil
// 凭证或目标库未配置时按“无重复”处理（查重是尽力而为，不阻塞保存），
// 查询本身的错误则向上传播——查询失败和“没查到”是两回事
func (r *DuplicateResolver) FindExisting(ctx context.Context, url string) (*model.Record, error) {
	if err := r.cfg.RequireNotion(); err != nil {
		slog.Debug("文档库未配置，跳过查重")
		return nil, nil
	}

	record, err := r.store.QueryByURL(ctx, r.cfg.NotionSnapshot().DatabaseID, url)
	if err != nil {
		return nil, err
	}
	if record != nil {
		slog.Debug("发现已有记录", "url", url, "page_id", record.ID)
	}
	return record, nil
}
