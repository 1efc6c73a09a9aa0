package model

import (
	"strings"
	"time"
)

// Difficulty 题目难度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// StatusAccepted 提交被判定为通过的状态码（LeetCode statusCode=10）
const StatusAccepted = 10

// Tag 题目标签
type Tag struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Problem 题目元数据
type Problem struct {
	ExternalID string     `json:"external_id"` // 平台侧展示编号（如 LeetCode frontendId）
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	Content    string     `json:"content"`
	Tags       []Tag      `json:"tags"`
	RelatedIDs []string   `json:"related_ids"` // 相似题目，保持平台返回顺序
}

// Metrics 提交执行指标
type Metrics struct {
	RuntimeDisplay    string   `json:"runtime_display"`
	RuntimePercentile *float64 `json:"runtime_percentile"`
	MemoryDisplay     string   `json:"memory_display"`
	MemoryPercentile  *float64 `json:"memory_percentile"`
	StatusCode        int      `json:"status_code"`
}

// Analysis AI 解题分析结果
type Analysis struct {
	TimeComplexity  string `json:"timeComplexity"`
	SpaceComplexity string `json:"spaceComplexity"`
	Approach        string `json:"approach"`
	Tips            string `json:"tips"`
}

// IsEmpty 判断分析结果是否为空
func (a Analysis) IsEmpty() bool {
	return a.TimeComplexity == "" && a.SpaceComplexity == "" && a.Approach == "" && a.Tips == ""
}

// SubmissionArtifact 一次保存尝试的不可变快照
type SubmissionArtifact struct {
	Platform string    `json:"platform"`
	Problem  Problem   `json:"problem"`
	Code     string    `json:"code"`
	Language string    `json:"language"`
	Metrics  *Metrics  `json:"metrics,omitempty"`
	URL      string    `json:"url"` // 规范化 URL，去重键
	Analysis *Analysis `json:"analysis,omitempty"`
}

// Solution 记录下的一次提交
type Solution struct {
	Index    int       `json:"index"` // 追加顺序，从 1 开始
	Code     string    `json:"code"`
	Language string    `json:"language"`
	Metrics  *Metrics  `json:"metrics,omitempty"`
	Analysis *Analysis `json:"analysis,omitempty"`
}

// Record 文档库中一道题的持久化记录（每个规范化 URL 至多一条）
type Record struct {
	ID         string     `json:"id"` // 文档库分配的页面 ID
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Difficulty Difficulty `json:"difficulty"`
	SolvedDate string     `json:"solved_date"` // YYYY-MM-DD，首次保存日期
	Solutions  []Solution `json:"solutions,omitempty"`
}

// StatsSnapshot 派生统计快照（可缓存，随时可由全量记录重算）
type StatsSnapshot struct {
	Total  int `json:"total"`
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
	Streak int `json:"streak"` // 从今天向前连续有解题的天数
}

// CanonicalURL 规范化题目 URL：去掉查询串和片段
func CanonicalURL(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}

// DateKey 本地日期键 YYYY-MM-DD
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
