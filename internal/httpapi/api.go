package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/solvesync/solvesync/internal/eventbus"
	"github.com/solvesync/solvesync/internal/model"
	"github.com/solvesync/solvesync/internal/pkg/config"
)

// ========== DTOs（与浏览器助手的契约保持稳定） ==========

type SubmissionRequestDTO struct {
	URL       string `json:"url"`
	Code      string `json:"code"`
	Language  string `json:"language"`
	Timestamp int64  `json:"timestamp"`

	Runtime        string   `json:"runtime"`
	RuntimePercent *float64 `json:"runtime_percent"`
	MemoryUsage    string   `json:"memory_usage"`
	MemoryPercent  *float64 `json:"memory_percent"`
	StatusCode     int      `json:"status_code"`
}

type BridgeReplyDTO struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

type StatsDTO struct {
	Total  int `json:"total"`
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
	Streak int `json:"streak"`
}

type DatabaseDTO struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Selected bool   `json:"selected"`
}

type SyncLogDTO struct {
	ID            int64  `json:"id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	Platform      string `json:"platform"`
	Action        string `json:"action"`
	SolutionIndex int    `json:"solution_index"`
	Error         string `json:"error,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
	CreatedAt     int64  `json:"created_at"`
}

type SettingsDTO struct {
	ConfigPath string `json:"config_path"`

	NotionAPIKeySet    bool   `json:"notion_api_key_set"`
	NotionDatabaseID   string `json:"notion_database_id"`
	NotionDatabaseName string `json:"notion_database_name"`

	GeminiAPIKeySet bool   `json:"gemini_api_key_set"`
	GeminiModel     string `json:"gemini_model"`

	AutoSave       bool `json:"auto_save"`
	CodeTimeoutSec int  `json:"code_timeout_sec"`
	MemoryEnabled  bool `json:"memory_enabled"`
}

type SaveSettingsRequestDTO struct {
	NotionAPIKey       *string `json:"notion_api_key"`
	NotionDatabaseID   *string `json:"notion_database_id"`
	NotionDatabaseName *string `json:"notion_database_name"`

	GeminiAPIKey *string `json:"gemini_api_key"`
	GeminiModel  *string `json:"gemini_model"`

	AutoSave       *bool `json:"auto_save"`
	CodeTimeoutSec *int  `json:"code_timeout_sec"`
	MemoryEnabled  *bool `json:"memory_enabled"`
}

type SaveSettingsResponseDTO struct {
	RestartRequired bool `json:"restart_required"`
}

// ========== routes ==========

func (a *apiServer) registerJSONRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/submissions", a.wrapPOST(a.postSubmission))
	mux.HandleFunc("/api/bridge/reply", a.wrapPOST(a.postBridgeReply))

	mux.HandleFunc("/api/stats", a.wrapGET(a.getStats))
	mux.HandleFunc("/api/databases", a.wrapGET(a.listDatabases))
	mux.HandleFunc("/api/synclog", a.wrapGET(a.listSyncLog))
	mux.HandleFunc("/api/platforms", a.wrapGET(a.listPlatforms))

	mux.HandleFunc("/api/settings", a.wrapAny(a.settings))
}

func (a *apiServer) wrapGET(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		fn(w, r)
	}
}

func (a *apiServer) wrapPOST(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		fn(w, r)
	}
}

func (a *apiServer) wrapAny(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { fn(w, r) }
}

// ========== handlers ==========

// postSubmission 接收浏览器助手上报的提交事件
// 立即返回 202，保存流程在后台跑（结果经 SSE 通知）
func (a *apiServer) postSubmission(w http.ResponseWriter, r *http.Request) {
	var req SubmissionRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url 不能为空")
		return
	}

	event := &model.SubmissionEvent{
		URL:      req.URL,
		Code:     req.Code,
		Language: req.Language,
		Metrics: &model.Metrics{
			RuntimeDisplay:    req.Runtime,
			RuntimePercentile: req.RuntimePercent,
			MemoryDisplay:     req.MemoryUsage,
			MemoryPercentile:  req.MemoryPercent,
			StatusCode:        req.StatusCode,
		},
		Timestamp: req.Timestamp,
	}

	a.hub.Publish(eventbus.Event{
		Type: eventbus.TypeSyncStarted,
		Data: map[string]any{"url": req.URL},
	})

	// 请求上下文在返回后即取消，后台流程用独立上下文
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := a.rt.Services.Sync.HandleSubmission(ctx, event); err != nil {
			slog.Warn("处理提交事件失败", "url", event.URL, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{"accepted": true})
}

// postBridgeReply 浏览器助手回传跨端请求的应答（如编辑器代码）
func (a *apiServer) postBridgeReply(w http.ResponseWriter, r *http.Request) {
	var req BridgeReplyDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "id 不能为空")
		return
	}

	matched := a.rt.Bridge.Resolve(req.ID, req.Payload)
	writeJSON(w, http.StatusOK, map[string]any{"matched": matched})
}

func (a *apiServer) getStats(w http.ResponseWriter, r *http.Request) {
	force := strings.TrimSpace(r.URL.Query().Get("force")) == "true"

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	snapshot, err := a.rt.Services.Stats.GetStats(ctx, force)
	if err != nil {
		if errors.Is(err, config.ErrNotConfigured) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, &StatsDTO{
		Total:  snapshot.Total,
		Easy:   snapshot.Easy,
		Medium: snapshot.Medium,
		Hard:   snapshot.Hard,
		Streak: snapshot.Streak,
	})
}

func (a *apiServer) listDatabases(w http.ResponseWriter, r *http.Request) {
	if !a.rt.Clients.Notion.IsConfigured() {
		writeError(w, http.StatusBadRequest, "未设置 Notion API Key")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	databases, err := a.rt.Clients.Notion.SearchDatabases(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	selectedID := a.rt.Cfg.NotionSnapshot().DatabaseID
	result := make([]DatabaseDTO, 0, len(databases))
	for _, db := range databases {
		result = append(result, DatabaseDTO{
			ID:       db.ID,
			Title:    db.Title,
			Selected: db.ID == selectedID,
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *apiServer) listSyncLog(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := strings.TrimSpace(r.URL.Query().Get("limit")); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	logs, err := a.rt.Repos.SyncLog.Recent(ctx, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := make([]SyncLogDTO, 0, len(logs))
	for _, l := range logs {
		result = append(result, SyncLogDTO{
			ID:            l.ID,
			URL:           l.URL,
			Title:         l.Title,
			Platform:      l.Platform,
			Action:        l.Action,
			SolutionIndex: l.SolutionIndex,
			Error:         l.Error,
			DurationMs:    l.DurationMs,
			CreatedAt:     l.CreatedAt.UnixMilli(),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *apiServer) listPlatforms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.rt.Registry.Supported())
}

func (a *apiServer) settings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.getSettings(w, r)
	case http.MethodPost:
		a.saveSettings(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *apiServer) getSettings(w http.ResponseWriter, r *http.Request) {
	cfg := a.rt.Cfg
	notion := cfg.NotionSnapshot()
	writeJSON(w, http.StatusOK, &SettingsDTO{
		ConfigPath: a.cfgPath,

		NotionAPIKeySet:    notion.APIKey != "",
		NotionDatabaseID:   notion.DatabaseID,
		NotionDatabaseName: notion.DatabaseName,

		GeminiAPIKeySet: cfg.Gemini.APIKey != "",
		GeminiModel:     cfg.Gemini.Model,

		AutoSave:       cfg.AutoSaveEnabled(),
		CodeTimeoutSec: cfg.Sync.CodeTimeoutSec,
		MemoryEnabled:  cfg.Memory.Enabled,
	})
}

func (a *apiServer) saveSettings(w http.ResponseWriter, r *http.Request) {
	var req SaveSettingsRequestDTO
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cur, err := config.Load(a.cfgPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	prevDatabaseID := cur.Notion.DatabaseID

	if req.NotionAPIKey != nil {
		cur.Notion.APIKey = *req.NotionAPIKey
	}
	if req.NotionDatabaseID != nil {
		cur.Notion.DatabaseID = *req.NotionDatabaseID
	}
	if req.NotionDatabaseName != nil {
		cur.Notion.DatabaseName = *req.NotionDatabaseName
	}
	if req.GeminiAPIKey != nil {
		cur.Gemini.APIKey = *req.GeminiAPIKey
	}
	if req.GeminiModel != nil {
		cur.Gemini.Model = *req.GeminiModel
	}
	if req.AutoSave != nil {
		cur.Sync.AutoSave = *req.AutoSave
		// 运行中的开关立即生效，不等重启
		a.rt.Cfg.SetAutoSave(*req.AutoSave)
	}
	if req.CodeTimeoutSec != nil && *req.CodeTimeoutSec > 0 {
		cur.Sync.CodeTimeoutSec = *req.CodeTimeoutSec
	}
	if req.MemoryEnabled != nil {
		cur.Memory.Enabled = *req.MemoryEnabled
	}

	if err := config.WriteFile(a.cfgPath, cur); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// 切换目标数据库后旧统计作废
	if req.NotionDatabaseID != nil && *req.NotionDatabaseID != prevDatabaseID {
		a.rt.Cfg.UpdateNotion(func(n *config.NotionConfig) {
			n.DatabaseID = cur.Notion.DatabaseID
			n.DatabaseName = cur.Notion.DatabaseName
		})
		a.rt.Services.Stats.Invalidate(r.Context())
	}
	if req.NotionAPIKey != nil {
		a.rt.Cfg.UpdateNotion(func(n *config.NotionConfig) {
			n.APIKey = *req.NotionAPIKey
		})
	}

	a.hub.Publish(eventbus.Event{Type: "settings_updated"})
	writeJSON(w, http.StatusOK, &SaveSettingsResponseDTO{RestartRequired: false})
}
