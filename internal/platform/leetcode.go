package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/solvesync/solvesync/internal/model"
)

var leetcodeProblemRe = regexp.MustCompile(`leetcode\.(?:com|cn)/problems/([^/?#]+)`)

// LeetCodeAdapter LeetCode 平台适配器
type LeetCodeAdapter struct {
	endpoint string
	client   *http.Client
}

// LeetCodeConfig 配置（endpoint 留空使用官方 GraphQL）
type LeetCodeConfig struct {
	Endpoint string
}

// NewLeetCodeAdapter 创建适配器
func NewLeetCodeAdapter(cfg *LeetCodeConfig) *LeetCodeAdapter {
	endpoint := "https://leetcode.com/graphql/"
	if cfg != nil && cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
	}
	return &LeetCodeAdapter{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Name 平台名称
func (a *LeetCodeAdapter) Name() string {
	return "LeetCode"
}

// HomeURL 平台首页
func (a *LeetCodeAdapter) HomeURL() string {
	return "https://leetcode.com"
}

// Matches 判断是否是 LeetCode 题目页
func (a *LeetCodeAdapter) Matches(url string) bool {
	return leetcodeProblemRe.MatchString(url)
}

// TitleSlug 从题目 URL 提取 slug
func TitleSlug(url string) string {
	m := leetcodeProblemRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

const questionDataQuery = `
query questionData($titleSlug: String!) {
  question(titleSlug: $titleSlug) {
    questionId
    questionFrontendId
    title
    titleSlug
    content
    difficulty
    topicTags {
      name
      slug
    }
    similarQuestions
  }
}`

// FetchProblem 通过 GraphQL 拉取题目元数据
func (a *LeetCodeAdapter) FetchProblem(ctx context.Context, url string) (*model.Problem, error) {
	slug := TitleSlug(url)
	if slug == "" {
		return nil, fmt.Errorf("无法从 URL 提取题目 slug: %s", url)
	}

	payload := map[string]any{
		"query":         questionDataQuery,
		"variables":     map[string]any{"titleSlug": slug},
		"operationName": "questionData",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求题目数据失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("请求题目数据失败: %s", resp.Status)
	}

	var result struct {
		Data struct {
			Question *struct {
				QuestionFrontendID string `json:"questionFrontendId"`
				Title              string `json:"title"`
				Content            string `json:"content"`
				Difficulty         string `json:"difficulty"`
				TopicTags          []struct {
					Name string `json:"name"`
					Slug string `json:"slug"`
				} `json:"topicTags"`
				SimilarQuestions string `json:"similarQuestions"`
			} `json:"question"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("解析题目数据失败: %w", err)
	}
	if result.Data.Question == nil {
		return nil, fmt.Errorf("题目不存在: %s", slug)
	}

	q := result.Data.Question
	problem := &model.Problem{
		ExternalID: q.QuestionFrontendID,
		Title:      q.Title,
		Difficulty: model.Difficulty(q.Difficulty),
		Content:    q.Content,
		RelatedIDs: parseSimilarQuestions(q.SimilarQuestions),
	}
	for _, tag := range q.TopicTags {
		problem.Tags = append(problem.Tags, model.Tag{Name: tag.Name, Slug: tag.Slug})
	}
	return problem, nil
}

// parseSimilarQuestions 解析相似题目 JSON 串（平台返回的是字符串化 JSON）
func parseSimilarQuestions(raw string) []string {
	if raw == "" {
		return nil
	}
	var items []struct {
		TitleSlug string `json:"titleSlug"`
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.TitleSlug != "" {
			ids = append(ids, it.TitleSlug)
		}
	}
	return ids
}
