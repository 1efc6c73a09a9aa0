package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// GeminiClient Gemini API 客户端
type GeminiClient struct {
	apiKey         string
	baseURL        string
	model          string
	embeddingModel string
	client         *http.Client
}

// GeminiConfig 配置
type GeminiConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
}

// NewGeminiClient 创建客户端
func NewGeminiClient(cfg *GeminiConfig) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-004"
	}

	return &GeminiClient{
		apiKey:         cfg.APIKey,
		baseURL:        cfg.BaseURL,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// IsConfigured 检查是否已配置
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}

// post 发送请求，非 2xx 解析错误信封中的嵌套 message
func (c *GeminiClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(respBody, &envelope)
		slog.Error("Gemini API 错误", "status", resp.StatusCode, "message", envelope.Error.Message)
		if envelope.Error.Message != "" {
			return fmt.Errorf("Gemini API 错误: %s", envelope.Error.Message)
		}
		return fmt.Errorf("Gemini API 错误: %s", resp.Status)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}

// GenerateContent 发送单轮生成请求，返回首个候选的文本
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"contents": []any{
			map[string]any{
				"parts": []any{map[string]any{"text": prompt}},
			},
		},
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent?key=%s", c.model, c.apiKey)
	if err := c.post(ctx, path, payload, &result); err != nil {
		return "", err
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("无响应内容")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// Embed 生成文本嵌入（供解题记忆使用）
func (c *GeminiClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))

	for _, t := range texts {
		payload := map[string]any{
			"model": "models/" + c.embeddingModel,
			"content": map[string]any{
				"parts": []any{map[string]any{"text": t}},
			},
		}

		var result struct {
			Embedding struct {
				Values []float32 `json:"values"`
			} `json:"embedding"`
		}

		path := fmt.Sprintf("/v1beta/models/%s:embedContent?key=%s", c.embeddingModel, c.apiKey)
		if err := c.post(ctx, path, payload, &result); err != nil {
			return nil, err
		}
		embeddings = append(embeddings, result.Embedding.Values)
	}

	return embeddings, nil
}
