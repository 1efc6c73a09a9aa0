package handler

import (
	"log/slog"

	"github.com/solvesync/solvesync/internal/eventbus"
)

// HubNotifier 把通知发布到事件总线，由浏览器助手渲染为页面浮层
type HubNotifier struct {
	hub *eventbus.Hub
}

// NewHubNotifier 创建事件总线通知器
func NewHubNotifier(hub *eventbus.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// Notify 发布通知事件（fire-and-forget）
func (n *HubNotifier) Notify(title, message string) {
	n.hub.Publish(eventbus.Event{
		Type: eventbus.TypeNotification,
		Data: map[string]any{
			"title":   title,
			"message": message,
		},
	})
}

// LogNotifier 把通知写入日志（无助手连接时的兜底）
type LogNotifier struct{}

// Notify 记录通知
func (LogNotifier) Notify(title, message string) {
	slog.Info("通知", "title", title, "message", message)
}

// MultiNotifier 组合多个通知器，逐个投递
type MultiNotifier []interface{ Notify(title, message string) }

// Notify 投递到全部通知器
func (m MultiNotifier) Notify(title, message string) {
	for _, n := range m {
		n.Notify(title, message)
	}
}
