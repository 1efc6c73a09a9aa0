package notion

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/solvesync/solvesync/internal/model"
)

// Notion code block 单段富文本上限
const codeChunkSize = 2000

type richText struct {
	PlainText string `json:"plain_text"`
	Text      struct {
		Content string `json:"content"`
	} `json:"text"`
}

type pageObject struct {
	ID         string `json:"id"`
	Properties struct {
		Name struct {
			Title []richText `json:"title"`
		} `json:"Name"`
		URL struct {
			URL string `json:"url"`
		} `json:"URL"`
		Difficulty struct {
			Select *struct {
				Name string `json:"name"`
			} `json:"select"`
		} `json:"Difficulty"`
		DateSolved struct {
			Date *struct {
				Start string `json:"start"`
			} `json:"date"`
		} `json:"Date Solved"`
	} `json:"properties"`
}

type queryResult struct {
	Results    []pageObject `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor string       `json:"next_cursor"`
}

func plainText(rts []richText) string {
	var b strings.Builder
	for _, rt := range rts {
		if rt.PlainText != "" {
			b.WriteString(rt.PlainText)
		} else {
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}

func isSolutionHeading(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "Solution ")
}

// pageToRecord 把 Notion 页面对象转成领域记录
func pageToRecord(page *pageObject) model.Record {
	rec := model.Record{
		ID:    page.ID,
		Title: plainText(page.Properties.Name.Title),
		URL:   page.Properties.URL.URL,
	}
	if sel := page.Properties.Difficulty.Select; sel != nil {
		rec.Difficulty = model.Difficulty(sel.Name)
	}
	if date := page.Properties.DateSolved.Date; date != nil {
		rec.SolvedDate = date.Start
	}
	return rec
}

func text(content string) map[string]any {
	return map[string]any{"type": "text", "text": map[string]any{"content": content}}
}

// buildProperties 构建新页面的属性集
func buildProperties(artifact *model.SubmissionArtifact) map[string]any {
	title := artifact.Problem.Title
	if artifact.Problem.ExternalID != "" {
		title = fmt.Sprintf("%s. %s", artifact.Problem.ExternalID, artifact.Problem.Title)
	}

	props := map[string]any{
		"Name": map[string]any{
			"title": []any{text(title)},
		},
		"URL": map[string]any{
			"url": artifact.URL,
		},
		"Date Solved": map[string]any{
			"date": map[string]any{"start": model.DateKey(time.Now())},
		},
	}

	if artifact.Problem.Difficulty != "" {
		props["Difficulty"] = map[string]any{
			"select": map[string]any{"name": string(artifact.Problem.Difficulty)},
		}
	}
	if artifact.Platform != "" {
		props["Platform"] = map[string]any{
			"select": map[string]any{"name": artifact.Platform},
		}
	}
	if len(artifact.Problem.Tags) > 0 {
		options := make([]any, 0, len(artifact.Problem.Tags))
		for _, tag := range artifact.Problem.Tags {
			options = append(options, map[string]any{"name": tag.Name})
		}
		props["Tags"] = map[string]any{"multi_select": options}
	}

	return props
}

// buildSolutionBlocks 构建第 n 个解法的内容块：标题、分析字段、代码
func buildSolutionBlocks(artifact *model.SubmissionArtifact, n int) []any {
	blocks := []any{
		map[string]any{
			"object": "block",
			"type":   "heading_2",
			"heading_2": map[string]any{
				"rich_text": []any{text(fmt.Sprintf("Solution %d (%s)", n, model.DateKey(time.Now())))},
			},
		},
	}

	var facts []string
	if artifact.Analysis != nil {
		if artifact.Analysis.TimeComplexity != "" {
			facts = append(facts, "时间复杂度: "+artifact.Analysis.TimeComplexity)
		}
		if artifact.Analysis.SpaceComplexity != "" {
			facts = append(facts, "空间复杂度: "+artifact.Analysis.SpaceComplexity)
		}
		if artifact.Analysis.Approach != "" {
			facts = append(facts, "解法思路: "+artifact.Analysis.Approach)
		}
	}
	if artifact.Metrics != nil {
		if artifact.Metrics.RuntimeDisplay != "" {
			facts = append(facts, "运行时间: "+artifact.Metrics.RuntimeDisplay)
		}
		if artifact.Metrics.MemoryDisplay != "" {
			facts = append(facts, "内存占用: "+artifact.Metrics.MemoryDisplay)
		}
	}
	for _, fact := range facts {
		blocks = append(blocks, map[string]any{
			"object": "block",
			"type":   "bulleted_list_item",
			"bulleted_list_item": map[string]any{
				"rich_text": []any{text(fact)},
			},
		})
	}

	if artifact.Analysis != nil && artifact.Analysis.Tips != "" {
		blocks = append(blocks, map[string]any{
			"object": "block",
			"type":   "paragraph",
			"paragraph": map[string]any{
				"rich_text": []any{text(artifact.Analysis.Tips)},
			},
		})
	}

	if artifact.Code != "" {
		blocks = append(blocks, map[string]any{
			"object": "block",
			"type":   "code",
			"code": map[string]any{
				"rich_text": chunkCode(artifact.Code),
				"language":  notionLanguage(artifact.Language),
			},
		})
	}

	return blocks
}

// chunkCode 按 Notion 富文本长度上限切分代码
// 切点回退到字符边界，避免把多字节字符劈成两半
func chunkCode(code string) []any {
	var chunks []any
	for len(code) > codeChunkSize {
		cut := codeChunkSize
		for cut > 0 && !utf8.RuneStart(code[cut]) {
			cut--
		}
		if cut == 0 {
			// 整段都是延续字节说明输入不是合法 UTF-8，按原上限硬切
			cut = codeChunkSize
		}
		chunks = append(chunks, text(code[:cut]))
		code = code[cut:]
	}
	if code != "" {
		chunks = append(chunks, text(code))
	}
	return chunks
}

// notionLanguage 把平台语言名映射为 Notion code block 支持的语言
func notionLanguage(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "golang", "go":
		return "go"
	case "python", "python3":
		return "python"
	case "javascript", "js":
		return "javascript"
	case "typescript", "ts":
		return "typescript"
	case "cpp", "c++":
		return "c++"
	case "csharp", "c#":
		return "c#"
	case "java":
		return "java"
	case "rust":
		return "rust"
	case "kotlin":
		return "kotlin"
	case "swift":
		return "swift"
	case "ruby":
		return "ruby"
	case "c":
		return "c"
	case "sql", "mysql", "postgresql":
		return "sql"
	default:
		return "plain text"
	}
}
