package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/solvesync/solvesync/internal/model"
)

// SubmissionHandler 处理一条投递的提交事件
type SubmissionHandler func(ctx context.Context, event *model.SubmissionEvent)

// DropWatcher 投递目录监控器
// 浏览器助手无法直连本地 HTTP 时，可把提交事件写成 JSON 文件投递到该目录；
// 文件处理完即删除
type DropWatcher struct {
	watcher     *fsnotify.Watcher
	dir         string
	handler     SubmissionHandler
	debounceMap map[string]time.Time // 防抖：file -> lastSeen
	debounceDur time.Duration
	mu          sync.Mutex
	stopOnce    sync.Once
	stopChan    chan struct{}
}

// DropWatcherConfig 配置
type DropWatcherConfig struct {
	Dir         string // 监控目录
	DebounceSec int    // 防抖时间（秒）
}

// NewDropWatcher 创建投递目录监控器
func NewDropWatcher(cfg *DropWatcherConfig, handler SubmissionHandler) (*DropWatcher, error) {
	if cfg == nil || cfg.Dir == "" {
		return nil, fmt.Errorf("投递目录不能为空")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler 不能为空")
	}
	if cfg.DebounceSec <= 0 {
		cfg.DebounceSec = 1
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("创建投递目录失败: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监控器失败: %w", err)
	}

	return &DropWatcher{
		watcher:     watcher,
		dir:         cfg.Dir,
		handler:     handler,
		debounceMap: make(map[string]time.Time),
		debounceDur: time.Duration(cfg.DebounceSec) * time.Second,
		stopChan:    make(chan struct{}),
	}, nil
}

// Start 开始监控（非阻塞）；启动时先消化目录中已有的文件
func (w *DropWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("添加监控目录失败: %w", err)
	}

	// 处理启动前遗留的投递文件
	entries, err := os.ReadDir(w.dir)
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && isSubmissionFile(entry.Name()) {
				w.processFile(ctx, filepath.Join(w.dir, entry.Name()))
			}
		}
	}

	go w.loop(ctx)
	slog.Info("投递目录监控已启动", "dir", w.dir)
	return nil
}

// Stop 停止监控
func (w *DropWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		_ = w.watcher.Close()
	})
}

func (w *DropWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isSubmissionFile(event.Name) {
				continue
			}
			if !w.shouldProcess(event.Name) {
				continue
			}
			// 写入可能尚未完成，稍等一拍再读
			time.Sleep(100 * time.Millisecond)
			w.processFile(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("文件监控错误", "error", err)
		}
	}
}

// shouldProcess 防抖：同一文件在防抖窗口内只处理一次
func (w *DropWatcher) shouldProcess(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if last, ok := w.debounceMap[path]; ok && now.Sub(last) < w.debounceDur {
		return false
	}
	w.debounceMap[path] = now
	return true
}

func (w *DropWatcher) processFile(ctx context.Context, path string) {
	event, err := ParseSubmissionFile(path)
	if err != nil {
		slog.Warn("解析投递文件失败，跳过", "path", path, "error", err)
		return
	}

	w.handler(ctx, event)

	if err := os.Remove(path); err != nil {
		slog.Warn("删除投递文件失败", "path", path, "error", err)
	}
}

// ParseSubmissionFile 读取并解析一个投递的提交事件文件
func ParseSubmissionFile(path string) (*model.SubmissionEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取投递文件失败: %w", err)
	}

	var event model.SubmissionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("解析投递文件失败: %w", err)
	}
	if event.URL == "" {
		return nil, fmt.Errorf("投递文件缺少 url 字段")
	}
	return &event, nil
}

func isSubmissionFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".json")
}
