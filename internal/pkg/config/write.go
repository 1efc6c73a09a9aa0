package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

func DefaultConfigPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("获取可执行文件路径失败: %w", err)
	}
	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, "config", "config.yaml"), nil
}

func WriteFile(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("cfg 不能为空")
	}
	if path == "" {
		return fmt.Errorf("path 不能为空")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	payload := map[string]any{
		"app": map[string]any{
			"name":      cfg.App.Name,
			"version":   cfg.App.Version,
			"log_level": cfg.App.LogLevel,
		},
		"server": map[string]any{
			"listen_addr": cfg.Server.ListenAddr,
		},
		"storage": map[string]any{
			"db_path": cfg.Storage.DBPath,
		},
		"notion": map[string]any{
			"api_key":       cfg.Notion.APIKey,
			"database_id":   cfg.Notion.DatabaseID,
			"database_name": cfg.Notion.DatabaseName,
			"base_url":      cfg.Notion.BaseURL,
		},
		"gemini": map[string]any{
			"api_key":         cfg.Gemini.APIKey,
			"model":           cfg.Gemini.Model,
			"embedding_model": cfg.Gemini.EmbeddingModel,
			"base_url":        cfg.Gemini.BaseURL,
		},
		"sync": map[string]any{
			"auto_save":        cfg.Sync.AutoSave,
			"code_timeout_sec": cfg.Sync.CodeTimeoutSec,
		},
		"watcher": map[string]any{
			"enabled":  cfg.Watcher.Enabled,
			"drop_dir": cfg.Watcher.DropDir,
		},
		"memory": map[string]any{
			"enabled":      cfg.Memory.Enabled,
			"storage_path": cfg.Memory.StoragePath,
		},
	}

	b, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
