package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/solvesync/solvesync/internal/ai"
	"github.com/solvesync/solvesync/internal/bridge"
	"github.com/solvesync/solvesync/internal/model"
	"github.com/solvesync/solvesync/internal/pkg/config"
	"github.com/solvesync/solvesync/internal/platform"
	"github.com/solvesync/solvesync/internal/schema"
)

// SyncService 同步编排器
// 一次通过的提交 → 查重 ∥ 分析 → 新建或追加 → 缓存失效 → 通知
type SyncService struct {
	cfg      *config.Config
	registry *platform.Registry
	resolver *DuplicateResolver
	writer   *RecordWriter
	analyzer Analyzer
	stats    *StatsService
	notifier Notifier
	syncLog  SyncLogStore
	code     CodeProvider // 可为 nil（无浏览器助手连接）
	memory   Memory       // 可为 nil（记忆未启用）

	inFlight atomic.Bool // 单飞闸门：进行中的编排运行至多一个
}

// NewSyncService 创建编排器
func NewSyncService(
	cfg *config.Config,
	registry *platform.Registry,
	resolver *DuplicateResolver,
	writer *RecordWriter,
	analyzer Analyzer,
	stats *StatsService,
	notifier Notifier,
	syncLog SyncLogStore,
) *SyncService {
	return &SyncService{
		cfg:      cfg,
		registry: registry,
		resolver: resolver,
		writer:   writer,
		analyzer: analyzer,
		stats:    stats,
		notifier: notifier,
		syncLog:  syncLog,
	}
}

// SetNotifier 替换通知器（Agent 启动后接入事件总线时使用）
func (s *SyncService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// SetCodeProvider 设置代码获取通道（可选）
func (s *SyncService) SetCodeProvider(code CodeProvider) {
	s.code = code
}

// SetMemory 设置解题记忆（可选）
func (s *SyncService) SetMemory(memory Memory) {
	s.memory = memory
}

// Result 一次保存的结果
type Result struct {
	Record        *model.Record
	Appended      bool // true=追加解法，false=新建记录
	SolutionIndex int
}

// HandleSubmission 自动保存入口：由提交事件触发
// 进入条件：受支持平台的题目 URL + 提交通过 + 自动保存开启；
// 已有运行在进行时本次触发直接丢弃（不排队），防止快速重复提交造成并发写
func (s *SyncService) HandleSubmission(ctx context.Context, event *model.SubmissionEvent) error {
	adapter := s.registry.Detect(event.URL)
	if adapter == nil {
		slog.Debug("非受支持平台页面，忽略", "url", event.URL)
		return nil
	}
	if !event.Accepted() {
		slog.Debug("提交未通过，忽略", "url", event.URL)
		return nil
	}
	if !s.cfg.AutoSaveEnabled() {
		slog.Debug("自动保存未开启，忽略")
		return nil
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		slog.Info("已有同步进行中，丢弃本次触发", "url", event.URL)
		return nil
	}
	defer s.inFlight.Store(false)

	_, err := s.run(ctx, adapter, event)
	return err
}

// ManualSave 手动保存入口（CLI）
// 不经过自动保存开关与单飞闸门——与自动保存并发时对同一记录的
// 解法序号没有保护，这是已知风险
func (s *SyncService) ManualSave(ctx context.Context, event *model.SubmissionEvent) (*Result, error) {
	adapter := s.registry.Detect(event.URL)
	if adapter == nil {
		return nil, fmt.Errorf("不是受支持平台的题目页面: %s", event.URL)
	}
	return s.run(ctx, adapter, event)
}

func (s *SyncService) run(ctx context.Context, adapter platform.Adapter, event *model.SubmissionEvent) (*Result, error) {
	start := time.Now()
	url := model.CanonicalURL(event.URL)

	if err := s.cfg.RequireNotion(); err != nil {
		s.finishFailed(ctx, url, "", adapter.Name(), err, start)
		return nil, err
	}

	// 题目元数据与编辑器代码并发获取；代码获取超时降级为空
	var (
		wg      sync.WaitGroup
		problem *model.Problem
		perr    error
		codeRes bridge.CodeResult
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		problem, perr = adapter.FetchProblem(ctx, url)
	}()
	if event.Code == "" && s.code != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			timeout := time.Duration(s.cfg.Sync.CodeTimeoutSec) * time.Second
			codeRes = s.code.RequestCode(ctx, timeout)
		}()
	}
	wg.Wait()

	if perr != nil {
		err := fmt.Errorf("获取题目数据失败: %w", perr)
		s.finishFailed(ctx, url, "", adapter.Name(), err, start)
		return nil, err
	}

	artifact := &model.SubmissionArtifact{
		Platform: adapter.Name(),
		Problem:  *problem,
		Code:     event.Code,
		Language: event.Language,
		Metrics:  event.Metrics,
		URL:      url,
	}
	if artifact.Code == "" {
		artifact.Code = codeRes.Code
	}
	if artifact.Language == "" {
		artifact.Language = codeRes.Language
	}

	title := problem.Title
	if problem.ExternalID != "" {
		title = fmt.Sprintf("%s. %s", problem.ExternalID, problem.Title)
	}

	// 查重与分析互不依赖，并发执行；两者都完成后才进入写入
	var (
		existing *model.Record
		rerr     error
		analysis *model.Analysis
		aerr     error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		existing, rerr = s.resolver.FindExisting(ctx, url)
	}()
	go func() {
		defer wg.Done()
		var memories []string
		if s.memory != nil {
			memories = s.memory.Similar(ctx, problem)
		}
		analysis, aerr = s.analyzer.Analyze(ctx, &ai.AnalyzeRequest{
			ProblemTitle: title,
			Difficulty:   problem.Difficulty,
			Code:         artifact.Code,
			Language:     artifact.Language,
			Memories:     memories,
		})
	}()
	wg.Wait()

	// 分析失败只降级不中断：记录仍保存，分析字段留空
	if aerr != nil {
		slog.Warn("解法分析失败，保存空分析字段", "title", title, "error", aerr)
		analysis = &model.Analysis{}
	}
	artifact.Analysis = analysis

	if rerr != nil {
		err := fmt.Errorf("查重失败: %w", rerr)
		s.finishFailed(ctx, url, title, adapter.Name(), err, start)
		return nil, err
	}

	result := &Result{}
	var werr error
	if existing != nil {
		result.Appended = true
		result.Record, result.SolutionIndex, werr = s.writer.Append(ctx, existing.ID, artifact)
	} else {
		result.SolutionIndex = 1
		result.Record, werr = s.writer.Create(ctx, artifact)
	}
	if werr != nil {
		s.finishFailed(ctx, url, title, adapter.Name(), werr, start)
		return nil, werr
	}

	// 写成功后统计缓存无条件失效
	s.stats.Invalidate(ctx)

	action := schema.ActionCreated
	message := fmt.Sprintf("「%s」已保存", title)
	if result.Appended {
		action = schema.ActionAppended
		message = fmt.Sprintf("已向「%s」追加新解法", title)
	}
	s.notifier.Notify("已保存到 Notion", message)

	s.writeLog(ctx, &schema.SyncLog{
		URL:           url,
		Title:         title,
		Platform:      adapter.Name(),
		Action:        action,
		SolutionIndex: result.SolutionIndex,
		DurationMs:    time.Since(start).Milliseconds(),
	})

	// 解题记忆索引是锦上添花，失败不影响结果
	if s.memory != nil {
		s.memory.IndexRecord(ctx, artifact)
	}

	slog.Info("同步完成", "title", title, "action", action, "solution", result.SolutionIndex)
	return result, nil
}

// finishFailed 失败收尾：恰好一条失败通知 + 一条日志记录
func (s *SyncService) finishFailed(ctx context.Context, url, title, platformName string, err error, start time.Time) {
	message := err.Error()
	if title != "" {
		message = fmt.Sprintf("「%s」保存失败: %s", title, err.Error())
	}
	s.notifier.Notify("自动保存失败", message)

	s.writeLog(ctx, &schema.SyncLog{
		URL:        url,
		Title:      title,
		Platform:   platformName,
		Action:     schema.ActionFailed,
		Error:      err.Error(),
		DurationMs: time.Since(start).Milliseconds(),
	})
}

func (s *SyncService) writeLog(ctx context.Context, log *schema.SyncLog) {
	if s.syncLog == nil {
		return
	}
	if err := s.syncLog.Create(ctx, log); err != nil {
		slog.Warn("写入同步日志失败", "error", err)
	}
}
