package handler

import (
	"log/slog"
	"os/exec"
	"runtime"
)

// OpenURL 用系统默认浏览器打开 URL
func OpenURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		slog.Warn("打开浏览器失败", "url", url, "error", err)
	}
}
