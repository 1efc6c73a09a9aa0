package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/solvesync/solvesync/internal/model"
)

// AnalysisError 分析失败（密钥缺失/请求失败/响应不可解析）
// 调用方应降级为空分析字段，而不是中断保存
type AnalysisError struct {
	Reason string
	Err    error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("解题分析失败: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("解题分析失败: %s", e.Reason)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// SolutionAnalyzer 解法分析器
type SolutionAnalyzer struct {
	client *GeminiClient
}

// NewSolutionAnalyzer 创建解法分析器
func NewSolutionAnalyzer(client *GeminiClient) *SolutionAnalyzer {
	return &SolutionAnalyzer{client: client}
}

// AnalyzeRequest 分析请求
type AnalyzeRequest struct {
	ProblemTitle string
	Difficulty   model.Difficulty
	Code         string
	Language     string
	Memories     []string // 历史相似题解摘要（可为空）
}

// Analyze 分析一份通过的解法，返回复杂度/思路/提示四个字段
func (a *SolutionAnalyzer) Analyze(ctx context.Context, req *AnalyzeRequest) (*model.Analysis, error) {
	if !a.client.IsConfigured() {
		return nil, &AnalysisError{Reason: "Gemini API 未配置"}
	}

	prompt := buildAnalysisPrompt(req)

	response, err := a.client.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, &AnalysisError{Reason: "请求分析服务失败", Err: err}
	}

	// 清理响应（移除可能的 markdown 代码块）
	response = cleanJSONResponse(response)

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(response), &analysis); err != nil {
		return nil, &AnalysisError{Reason: "解析分析结果失败", Err: err}
	}

	return &analysis, nil
}

// buildAnalysisPrompt 构建分析 prompt：要求严格 JSON，四个固定字段
func buildAnalysisPrompt(req *AnalyzeRequest) string {
	var b strings.Builder

	b.WriteString(`You are a coding interview expert. Analyze the following solution and return a JSON object with exactly these fields:
- "timeComplexity": the time complexity in Big-O notation (e.g., "O(n)", "O(n log n)")
- "spaceComplexity": the space complexity in Big-O notation (e.g., "O(1)", "O(n)")
- "approach": the primary algorithm/technique used (e.g., "Two Pointers", "Dynamic Programming", "BFS", "DFS", "Binary Search", "Sliding Window", "Stack", "Hash Map", "Greedy", "Backtracking", "Union Find", "Trie", "Heap", "Monotonic Stack", "Bit Manipulation")
- "tips": a string with 2-4 bullet points of tips and common mistakes for this problem/approach, each on a new line starting with "- "

`)

	b.WriteString(fmt.Sprintf("Problem: %s (%s)\nLanguage: %s\n\n", req.ProblemTitle, req.Difficulty, req.Language))

	if len(req.Memories) > 0 {
		b.WriteString("Previously solved related problems (for context only):\n")
		for _, m := range req.Memories {
			b.WriteString("- " + strings.TrimSpace(m) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Code:\n")
	b.WriteString(req.Code)
	b.WriteString("\n\nReturn ONLY valid JSON, no markdown, no code fences, no extra text.")

	return b.String()
}

// cleanJSONResponse 清理 JSON 响应（移除 markdown 代码块和额外文本）
func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	// 移除 ```json ... ``` 或 ``` ... ```
	if strings.Contains(response, "```") {
		jsonStart := strings.Index(response, "```json")
		if jsonStart == -1 {
			jsonStart = strings.Index(response, "```")
		}
		if jsonStart != -1 {
			startIdx := strings.Index(response[jsonStart:], "\n")
			if startIdx != -1 {
				response = response[jsonStart+startIdx+1:]
			}
		}
		if endIdx := strings.LastIndex(response, "```"); endIdx != -1 {
			response = response[:endIdx]
		}
	}

	response = strings.TrimSpace(response)

	// 提取 JSON 对象（处理模型添加的前缀/后缀文字）
	if !strings.HasPrefix(response, "{") {
		if idx := strings.Index(response, "{"); idx != -1 {
			response = response[idx:]
		}
	}
	if !strings.HasSuffix(response, "}") {
		if idx := strings.LastIndex(response, "}"); idx != -1 {
			response = response[:idx+1]
		}
	}

	return strings.TrimSpace(response)
}
