package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("gemini model = %q", cfg.Gemini.Model)
	}
	if cfg.Sync.CodeTimeoutSec != 3 {
		t.Errorf("code timeout = %d, want 3", cfg.Sync.CodeTimeoutSec)
	}
	if !cfg.Sync.AutoSave {
		t.Error("auto save should default to on")
	}
	if cfg.Notion.BaseURL != "https://api.notion.com" {
		t.Errorf("notion base url = %q", cfg.Notion.BaseURL)
	}
}

func TestRequireNotion(t *testing.T) {
	cfg := Default()
	if err := cfg.RequireNotion(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}

	cfg.Notion.APIKey = "secret"
	if err := cfg.RequireNotion(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("missing database must still fail, got %v", err)
	}

	cfg.Notion.DatabaseID = "db-1"
	if err := cfg.RequireNotion(); err != nil {
		t.Fatalf("fully configured: %v", err)
	}
}

func TestRequireGemini(t *testing.T) {
	cfg := Default()
	if err := cfg.RequireGemini(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
	cfg.Gemini.APIKey = "key"
	if err := cfg.RequireGemini(); err != nil {
		t.Fatalf("configured: %v", err)
	}
}

// 自动保存开关和 Notion 目标库会被 HTTP / 托盘在运行期改写，
// 同步流程并发读取——带 -race 跑这里能兜住无锁回归
func TestConcurrentSettingsAccess(t *testing.T) {
	cfg := Default()
	cfg.Notion.APIKey = "nk"
	cfg.Notion.DatabaseID = "db-1"

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		enabled := i%2 == 0
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				cfg.SetAutoSave(enabled)
				cfg.UpdateNotion(func(n *NotionConfig) {
					n.DatabaseID = "db-2"
					n.DatabaseName = "刷题记录"
				})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = cfg.AutoSaveEnabled()
				_ = cfg.NotionSnapshot()
				_ = cfg.RequireNotion()
			}
		}()
	}
	wg.Wait()

	if got := cfg.NotionSnapshot().DatabaseID; got != "db-2" {
		t.Errorf("database id = %q, want db-2", got)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("SOLVESYNC_TEST_KEY", "from-env")

	if got := expandEnv("${SOLVESYNC_TEST_KEY}"); got != "from-env" {
		t.Errorf("expandEnv = %q", got)
	}
	if got := expandEnv("literal-key"); got != "literal-key" {
		t.Errorf("literal value must pass through, got %q", got)
	}
	if got := expandEnv("${UNSET_VAR_XYZ}"); got != "" {
		t.Errorf("unset var should expand to empty, got %q", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
notion:
  api_key: "${SOLVESYNC_TEST_NOTION_KEY}"
  database_id: "db-42"
sync:
  auto_save: false
  code_timeout_sec: 7
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SOLVESYNC_TEST_NOTION_KEY", "nk-123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notion.APIKey != "nk-123" {
		t.Errorf("api key = %q, want expanded env value", cfg.Notion.APIKey)
	}
	if cfg.Notion.DatabaseID != "db-42" {
		t.Errorf("database id = %q", cfg.Notion.DatabaseID)
	}
	if cfg.Sync.AutoSave {
		t.Error("auto_save should be off per file")
	}
	if cfg.Sync.CodeTimeoutSec != 7 {
		t.Errorf("code timeout = %d", cfg.Sync.CodeTimeoutSec)
	}
	// 文件未覆盖的项保留默认值
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("gemini model = %q", cfg.Gemini.Model)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config", "config.yaml")

	cfg := Default()
	cfg.Notion.APIKey = "nk"
	cfg.Notion.DatabaseID = "db-1"
	cfg.Sync.AutoSave = false

	if err := WriteFile(path, cfg); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Notion.APIKey != "nk" || loaded.Notion.DatabaseID != "db-1" {
		t.Errorf("notion config lost: %+v", loaded.Notion)
	}
	if loaded.Sync.AutoSave {
		t.Error("auto_save should survive the round trip")
	}
}
