package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// ErrNotConfigured 缺少必要配置（凭证或目标库未选择）
var ErrNotConfigured = errors.New("配置缺失")

// Config 应用配置
// Notion 与自动保存开关可在运行期被 HTTP / 托盘热更新，
// 并发读写须经下方带锁的访问方法
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Notion  NotionConfig  `mapstructure:"notion"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Watcher WatcherConfig `mapstructure:"watcher"`
	Memory  MemoryConfig  `mapstructure:"memory"`

	mu sync.RWMutex
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig 本地 HTTP 服务配置
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// StorageConfig 本地存储配置
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// NotionConfig Notion 文档库配置
type NotionConfig struct {
	APIKey       string `mapstructure:"api_key"`
	DatabaseID   string `mapstructure:"database_id"`
	DatabaseName string `mapstructure:"database_name"`
	BaseURL      string `mapstructure:"base_url"`
}

// GeminiConfig Gemini 分析配置
type GeminiConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	BaseURL        string `mapstructure:"base_url"`
}

// SyncConfig 同步行为配置
type SyncConfig struct {
	AutoSave       bool `mapstructure:"auto_save"`
	CodeTimeoutSec int  `mapstructure:"code_timeout_sec"`
}

// WatcherConfig 投递目录监控配置
type WatcherConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DropDir string `mapstructure:"drop_dir"`
}

// MemoryConfig 解题记忆（向量库）配置
type MemoryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	StoragePath string `mapstructure:"storage_path"`
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// 默认查找路径
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 支持环境变量
	v.SetEnvPrefix("SOLVESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("配置文件未找到，使用默认配置")
		} else {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		slog.Info("加载配置文件", "path", v.ConfigFileUsed())
	}

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 处理环境变量占位符
	cfg.Notion.APIKey = expandEnv(cfg.Notion.APIKey)
	cfg.Gemini.APIKey = expandEnv(cfg.Gemini.APIKey)

	// 处理相对路径
	cfg.Storage.DBPath = resolvePath(cfg.Storage.DBPath)
	if cfg.Watcher.DropDir != "" {
		cfg.Watcher.DropDir = resolvePath(cfg.Watcher.DropDir)
	}
	if cfg.Memory.StoragePath != "" {
		cfg.Memory.StoragePath = resolvePath(cfg.Memory.StoragePath)
	}

	return &cfg, nil
}

// Default 默认配置（首次运行时写盘用）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "solvesync-agent")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.log_level", "info")

	// Server
	v.SetDefault("server.listen_addr", "127.0.0.1:0")

	// Storage
	v.SetDefault("storage.db_path", "./data/solvesync.db")

	// Notion
	v.SetDefault("notion.base_url", "https://api.notion.com")

	// Gemini
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.embedding_model", "text-embedding-004")

	// Sync
	v.SetDefault("sync.auto_save", true)
	v.SetDefault("sync.code_timeout_sec", 3)

	// Watcher
	v.SetDefault("watcher.enabled", false)
	v.SetDefault("watcher.drop_dir", "./data/inbox")

	// Memory
	v.SetDefault("memory.enabled", false)
	v.SetDefault("memory.storage_path", "./data/memory")
}

// RequireNotion 校验文档库凭证与目标库已配置
func (c *Config) RequireNotion() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.Notion.APIKey == "" {
		return fmt.Errorf("%w: 未设置 Notion API Key", ErrNotConfigured)
	}
	if c.Notion.DatabaseID == "" {
		return fmt.Errorf("%w: 未选择目标数据库", ErrNotConfigured)
	}
	return nil
}

// AutoSaveEnabled 读自动保存开关（并发安全）
func (c *Config) AutoSaveEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Sync.AutoSave
}

// SetAutoSave 运行期切换自动保存开关
func (c *Config) SetAutoSave(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sync.AutoSave = enabled
}

// NotionSnapshot 返回 Notion 配置的一份副本（并发安全）
func (c *Config) NotionSnapshot() NotionConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Notion
}

// UpdateNotion 在锁内更新 Notion 配置
func (c *Config) UpdateNotion(fn func(n *NotionConfig)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.Notion)
}

// RequireGemini 校验分析服务已配置
func (c *Config) RequireGemini() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("%w: 未设置 Gemini API Key", ErrNotConfigured)
	}
	return nil
}

// expandEnv 展开环境变量占位符 ${VAR}
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		envVar := s[2 : len(s)-1]
		return os.Getenv(envVar)
	}
	return s
}

// resolvePath 解析相对路径为绝对路径
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	// 获取可执行文件目录
	exe, err := os.Executable()
	if err != nil {
		return path
	}

	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, path)
}

// SetupLogger 根据配置设置日志级别
func SetupLogger(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
