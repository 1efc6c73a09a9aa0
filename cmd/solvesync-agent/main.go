package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solvesync/solvesync/internal/bootstrap"
	"github.com/solvesync/solvesync/internal/handler"
	"github.com/solvesync/solvesync/internal/httpapi"
	"github.com/solvesync/solvesync/internal/pkg/config"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 首次运行时落一份默认配置，方便用户直接编辑
	cfgPath, cfgErr := config.DefaultConfigPath()
	if cfgErr == nil {
		if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
			_ = config.WriteFile(cfgPath, config.Default())
		}
	}

	rt, err := bootstrap.NewAgentRuntime(cfgPath)
	if err != nil {
		slog.Error("启动 Agent 失败", "error", err)
		os.Exit(1)
	}
	defer rt.Shutdown()

	slog.Info("SolveSync Agent 启动中...", "name", rt.Cfg.App.Name, "version", rt.Cfg.App.Version)

	server, err := httpapi.Start(ctx, rt, httpapi.Options{ListenAddr: rt.Cfg.Server.ListenAddr})
	if err != nil {
		slog.Error("启动本地 API 失败", "error", err)
		os.Exit(1)
	}
	slog.Info("SolveSync Agent 已启动")

	// ========== 系统托盘 ==========
	quitChan := make(chan struct{})

	tray := handler.NewTrayHandler(&handler.TrayConfig{
		AppName:  rt.Cfg.App.Name,
		AutoSave: rt.Cfg.AutoSaveEnabled(),
		OnOpen: func() {
			handler.OpenURL(server.BaseURL() + "/api/stats")
		},
		OnToggleAuto: func(enabled bool) {
			rt.Cfg.SetAutoSave(enabled)
			if cfgErr == nil {
				// 基于磁盘上的配置改写，避免直接序列化运行期配置
				if cur, err := config.Load(cfgPath); err == nil {
					cur.Sync.AutoSave = enabled
					if err := config.WriteFile(cfgPath, cur); err != nil {
						slog.Warn("保存自动保存开关失败", "error", err)
					}
				}
			}
			slog.Info("自动保存开关已切换", "enabled", enabled)
		},
		OnQuit: func() {
			slog.Info("从托盘退出")
			close(quitChan)
		},
	})

	// 监听系统信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			slog.Info("收到系统退出信号")
			tray.Quit()
		case <-quitChan:
			// 从托盘菜单退出
		}
	}()

	// 运行托盘（阻塞）
	tray.Run()

	slog.Info("正在关闭...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = server.Shutdown(shutdownCtx)
	shutdownCancel()

	slog.Info("SolveSync Agent 已退出")
}
