package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/solvesync/solvesync/internal/model"
)

const notionVersion = "2022-06-28"

// StoreError 文档库访问错误（传输/鉴权/查询失败）
type StoreError struct {
	Status  int
	Message string
}

func (e *StoreError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("文档库请求失败 (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("文档库请求失败: %s", e.Message)
}

// Client Notion API 客户端
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Config 客户端配置
type Config struct {
	APIKey  string
	BaseURL string
}

// NewClient 创建客户端
func NewClient(cfg *Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.notion.com"
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsConfigured 检查是否已配置凭证
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// do 发送请求并解析响应，非 2xx 统一转为 *StoreError
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &StoreError{Message: fmt.Sprintf("序列化请求失败: %v", err)}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &StoreError{Message: fmt.Sprintf("创建请求失败: %v", err)}
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", notionVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &StoreError{Message: fmt.Sprintf("发送请求失败: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &StoreError{Status: resp.StatusCode, Message: fmt.Sprintf("读取响应失败: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Notion 错误信封带有可读 message
		var envelope struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &envelope)
		if envelope.Message == "" {
			envelope.Message = resp.Status
		}
		slog.Error("Notion API 错误", "status", resp.StatusCode, "message", envelope.Message)
		return &StoreError{Status: resp.StatusCode, Message: envelope.Message}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &StoreError{Status: resp.StatusCode, Message: fmt.Sprintf("解析响应失败: %v", err)}
		}
	}
	return nil
}

// Database 可选的目标数据库
type Database struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SearchDatabases 列出凭证可见的所有数据库
func (c *Client) SearchDatabases(ctx context.Context) ([]Database, error) {
	payload := map[string]any{
		"filter": map[string]any{
			"property": "object",
			"value":    "database",
		},
	}

	var result struct {
		Results []struct {
			ID    string     `json:"id"`
			Title []richText `json:"title"`
		} `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/search", payload, &result); err != nil {
		return nil, err
	}

	databases := make([]Database, 0, len(result.Results))
	for _, r := range result.Results {
		databases = append(databases, Database{ID: r.ID, Title: plainText(r.Title)})
	}
	return databases, nil
}

// QueryByURL 按规范化 URL 查询已存在的记录，无匹配返回 nil
func (c *Client) QueryByURL(ctx context.Context, databaseID, url string) (*model.Record, error) {
	payload := map[string]any{
		"filter": map[string]any{
			"property": "URL",
			"url":      map[string]any{"equals": url},
		},
		"page_size": 1,
	}

	var result queryResult
	if err := c.do(ctx, http.MethodPost, "/v1/databases/"+databaseID+"/query", payload, &result); err != nil {
		return nil, err
	}

	if len(result.Results) == 0 {
		return nil, nil
	}
	rec := pageToRecord(&result.Results[0])
	return &rec, nil
}

// QueryAllPages 分页拉取数据库全部记录
func (c *Client) QueryAllPages(ctx context.Context, databaseID string) ([]model.Record, error) {
	var records []model.Record
	var cursor string

	for {
		payload := map[string]any{
			"page_size": 100,
		}
		if cursor != "" {
			payload["start_cursor"] = cursor
		}

		var result queryResult
		if err := c.do(ctx, http.MethodPost, "/v1/databases/"+databaseID+"/query", payload, &result); err != nil {
			return nil, err
		}

		for i := range result.Results {
			records = append(records, pageToRecord(&result.Results[i]))
		}

		if !result.HasMore || result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	return records, nil
}

// CreatePage 新建记录：解题日期取今天，附第 1 个解法
func (c *Client) CreatePage(ctx context.Context, databaseID string, artifact *model.SubmissionArtifact) (*model.Record, error) {
	payload := map[string]any{
		"parent":     map[string]any{"database_id": databaseID},
		"properties": buildProperties(artifact),
		"children":   buildSolutionBlocks(artifact, 1),
	}

	var page pageObject
	if err := c.do(ctx, http.MethodPost, "/v1/pages", payload, &page); err != nil {
		return nil, err
	}

	rec := pageToRecord(&page)
	slog.Info("新建记录", "title", rec.Title, "page_id", rec.ID)
	return &rec, nil
}

// CountSolutions 统计页面上已有的解法数（按解法标题块计数，分页遍历）
func (c *Client) CountSolutions(ctx context.Context, pageID string) (int, error) {
	count := 0
	var cursor string

	for {
		path := "/v1/blocks/" + pageID + "/children?page_size=100"
		if cursor != "" {
			path += "&start_cursor=" + cursor
		}

		var result struct {
			Results []struct {
				Type     string `json:"type"`
				Heading2 struct {
					RichText []richText `json:"rich_text"`
				} `json:"heading_2"`
			} `json:"results"`
			HasMore    bool   `json:"has_more"`
			NextCursor string `json:"next_cursor"`
		}
		if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
			return 0, err
		}

		for _, block := range result.Results {
			if block.Type == "heading_2" && isSolutionHeading(plainText(block.Heading2.RichText)) {
				count++
			}
		}

		if !result.HasMore || result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	return count, nil
}

// AppendSolution 向已有页面追加第 n 个解法
func (c *Client) AppendSolution(ctx context.Context, pageID string, artifact *model.SubmissionArtifact, n int) (*model.Record, error) {
	payload := map[string]any{
		"children": buildSolutionBlocks(artifact, n),
	}

	if err := c.do(ctx, http.MethodPatch, "/v1/blocks/"+pageID+"/children", payload, nil); err != nil {
		return nil, err
	}

	slog.Info("追加解法", "page_id", pageID, "solution", n)
	return &model.Record{
		ID:         pageID,
		Title:      artifact.Problem.Title,
		URL:        artifact.URL,
		Difficulty: artifact.Problem.Difficulty,
	}, nil
}
