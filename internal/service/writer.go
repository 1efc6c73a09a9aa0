package service

import (
	"context"
	"log/slog"

	"github.com/solvesync/solvesync/internal/model"
	"github.com/solvesync/solvesync/internal/pkg/config"
)

// RecordWriter 记录写入器：新建记录或向已有记录追加解法
// 调用方（编排器）在写成功后负责让统计缓存失效，写入器不感知缓存
type RecordWriter struct {
	store Store
	cfg   *config.Config
}

// NewRecordWriter 创建写入器
func NewRecordWriter(store Store, cfg *config.Config) *RecordWriter {
	return &RecordWriter{store: store, cfg: cfg}
}

// Create 新建记录：解题日期取今天，解法序号为 1
func (w *RecordWriter) Create(ctx context.Context, artifact *model.SubmissionArtifact) (*model.Record, error) {
	return w.store.CreatePage(ctx, w.cfg.NotionSnapshot().DatabaseID, artifact)
}

// Append 向已有记录追加解法，序号取当前解法数 +1
// 注意：读数和追加是两步操作，对同一记录的并发追加没有原子性保障；
// 编排路径有单飞闸门兜底，但手动保存路径可能与自动保存竞争，
// 届时序号可能重复（已知风险）
func (w *RecordWriter) Append(ctx context.Context, recordID string, artifact *model.SubmissionArtifact) (*model.Record, int, error) {
	count, err := w.store.CountSolutions(ctx, recordID)
	if err != nil {
		return nil, 0, err
	}

	n := count + 1
	record, err := w.store.AppendSolution(ctx, recordID, artifact, n)
	if err != nil {
		return nil, 0, err
	}

	slog.Debug("解法已追加", "page_id", recordID, "solution", n)
	return record, n, nil
}
