package bootstrap

import (
	"context"
	"log/slog"

	"github.com/solvesync/solvesync/internal/bridge"
	"github.com/solvesync/solvesync/internal/collector"
	"github.com/solvesync/solvesync/internal/eventbus"
	"github.com/solvesync/solvesync/internal/handler"
	"github.com/solvesync/solvesync/internal/model"
)

// AgentRuntime Agent 进程的完整运行时：核心依赖 + 事件总线 + 跨端桥 + 投递监控
type AgentRuntime struct {
	*Core
	Hub     *eventbus.Hub
	Bridge  *bridge.Bridge
	Watcher *collector.DropWatcher // 可为 nil（投递监控未启用）

	cancel context.CancelFunc
}

// NewAgentRuntime 在核心依赖之上组装 Agent 运行时
func NewAgentRuntime(cfgPath string) (*AgentRuntime, error) {
	core, err := NewCore(cfgPath)
	if err != nil {
		return nil, err
	}

	hub := eventbus.NewHub()

	// 跨端桥的请求经事件总线下发到浏览器助手（SSE）
	br := bridge.New(func(req bridge.Request) {
		hub.Publish(eventbus.Event{
			Type: eventbus.TypeBridgeRequest,
			Data: map[string]any{
				"id":   req.ID,
				"kind": req.Kind,
			},
		})
	})

	// 通知同时走事件总线（页面浮层）和日志（无助手连接时兜底）
	core.Services.Sync.SetNotifier(handler.MultiNotifier{
		handler.NewHubNotifier(hub),
		handler.LogNotifier{},
	})
	core.Services.Sync.SetCodeProvider(br)

	rt := &AgentRuntime{Core: core, Hub: hub, Bridge: br}

	if core.Cfg.Watcher.Enabled {
		ctx, cancel := context.WithCancel(context.Background())
		rt.cancel = cancel

		watcher, err := collector.NewDropWatcher(&collector.DropWatcherConfig{
			Dir: core.Cfg.Watcher.DropDir,
		}, func(ctx context.Context, event *model.SubmissionEvent) {
			if err := core.Services.Sync.HandleSubmission(ctx, event); err != nil {
				slog.Warn("处理投递提交失败", "url", event.URL, "error", err)
			}
		})
		if err != nil {
			slog.Warn("投递目录监控初始化失败，已禁用", "error", err)
		} else if err := watcher.Start(ctx); err != nil {
			slog.Warn("投递目录监控启动失败，已禁用", "error", err)
		} else {
			rt.Watcher = watcher
		}
	}

	return rt, nil
}

// Shutdown 按依赖逆序停止运行时
func (rt *AgentRuntime) Shutdown() {
	if rt.Watcher != nil {
		rt.Watcher.Stop()
	}
	if rt.cancel != nil {
		rt.cancel()
	}
	if err := rt.Close(); err != nil {
		slog.Warn("关闭数据库失败", "error", err)
	}
}
