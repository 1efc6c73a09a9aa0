package handler

import (
	"github.com/getlantern/systray"
)

// TrayHandler 系统托盘处理器
type TrayHandler struct {
	appName      string
	autoSave     bool
	onOpen       func()
	onToggleAuto func(enabled bool)
	onQuit       func()
}

// TrayConfig 托盘配置
type TrayConfig struct {
	AppName      string
	AutoSave     bool // 初始的自动保存开关状态
	OnOpen       func()
	OnToggleAuto func(enabled bool)
	OnQuit       func()
}

// NewTrayHandler 创建托盘处理器
func NewTrayHandler(cfg *TrayConfig) *TrayHandler {
	return &TrayHandler{
		appName:      cfg.AppName,
		autoSave:     cfg.AutoSave,
		onOpen:       cfg.OnOpen,
		onToggleAuto: cfg.OnToggleAuto,
		onQuit:       cfg.OnQuit,
	}
}

// Run 启动托盘（阻塞）
func (t *TrayHandler) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit 退出托盘
func (t *TrayHandler) Quit() {
	systray.Quit()
}

func (t *TrayHandler) onReady() {
	// 设置标题和提示（不设置图标，避免格式问题）
	systray.SetTitle(t.appName)
	systray.SetTooltip(t.appName + " - 刷题记录同步")

	// 菜单项
	mOpen := systray.AddMenuItem("打开统计面板", "查看解题进度统计")
	systray.AddSeparator()
	mAutoSave := systray.AddMenuItemCheckbox("自动保存", "提交通过后自动保存到文档库", t.autoSave)
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("退出", "退出 SolveSync")

	go func() {
		for {
			select {
			case <-mOpen.ClickedCh:
				if t.onOpen != nil {
					t.onOpen()
				}
			case <-mAutoSave.ClickedCh:
				if mAutoSave.Checked() {
					mAutoSave.Uncheck()
				} else {
					mAutoSave.Check()
				}
				if t.onToggleAuto != nil {
					t.onToggleAuto(mAutoSave.Checked())
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func (t *TrayHandler) onExit() {
	if t.onQuit != nil {
		t.onQuit()
	}
}
