package notion

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/solvesync/solvesync/internal/model"
)

func TestIsSolutionHeading(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Solution 1 (2026-08-28)", true},
		{"  Solution 12 (2026-08-28)", true},
		{"Notes", false},
		{"Solutions overview", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isSolutionHeading(tc.text); got != tc.want {
			t.Errorf("isSolutionHeading(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestBuildPropertiesTitleFormat(t *testing.T) {
	artifact := &model.SubmissionArtifact{
		Platform: "LeetCode",
		Problem: model.Problem{
			ExternalID: "146",
			Title:      "LRU Cache",
			Difficulty: model.DifficultyMedium,
			Tags:       []model.Tag{{Name: "Design"}},
		},
		URL: "https://leetcode.com/problems/lru-cache/",
	}

	props := buildProperties(artifact)

	name := props["Name"].(map[string]any)["title"].([]any)[0].(map[string]any)
	title := name["text"].(map[string]any)["content"].(string)
	if title != "146. LRU Cache" {
		t.Errorf("title = %q, want \"146. LRU Cache\"", title)
	}
	if _, ok := props["Difficulty"]; !ok {
		t.Error("difficulty select missing")
	}
	if _, ok := props["Tags"]; !ok {
		t.Error("tags multi_select missing")
	}
}

func TestBuildPropertiesWithoutExternalID(t *testing.T) {
	artifact := &model.SubmissionArtifact{
		Problem: model.Problem{Title: "Some Problem"},
		URL:     "https://example.com/p",
	}

	props := buildProperties(artifact)
	name := props["Name"].(map[string]any)["title"].([]any)[0].(map[string]any)
	title := name["text"].(map[string]any)["content"].(string)
	if title != "Some Problem" {
		t.Errorf("title = %q", title)
	}
	if _, ok := props["Difficulty"]; ok {
		t.Error("empty difficulty must not emit a select")
	}
}

func TestBuildSolutionBlocksEmptyAnalysis(t *testing.T) {
	artifact := &model.SubmissionArtifact{
		Problem:  model.Problem{Title: "Two Sum"},
		Code:     "func twoSum() {}",
		Language: "golang",
		Analysis: &model.Analysis{}, // 分析降级后的空结果
	}

	blocks := buildSolutionBlocks(artifact, 1)

	// 标题 + 代码块，没有空的分析要点
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2 (heading + code)", len(blocks))
	}
	heading := blocks[0].(map[string]any)
	if heading["type"] != "heading_2" {
		t.Errorf("first block type = %v", heading["type"])
	}
	code := blocks[1].(map[string]any)
	if code["type"] != "code" {
		t.Errorf("last block type = %v", code["type"])
	}
	if code["code"].(map[string]any)["language"] != "go" {
		t.Errorf("language = %v, want go", code["code"].(map[string]any)["language"])
	}
}

func TestChunkCode(t *testing.T) {
	long := strings.Repeat("x", codeChunkSize*2+10)
	chunks := chunkCode(long)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}

	if got := chunkCode(""); got != nil {
		t.Errorf("empty code should yield no chunks, got %v", got)
	}
	if got := chunkCode("short"); len(got) != 1 {
		t.Errorf("short code should fit one chunk, got %d", len(got))
	}
}

func chunkContents(chunks []any) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		content := c.(map[string]any)["text"].(map[string]any)["content"].(string)
		out = append(out, content)
	}
	return out
}

func TestChunkCodeKeepsRunesIntact(t *testing.T) {
	// 中文注释常见于 leetcode.cn 的解法：多字节字符恰好骑在切分点上
	code := strings.Repeat("a", codeChunkSize-1) + "中文注释" + strings.Repeat("b", codeChunkSize)

	var rebuilt strings.Builder
	for i, content := range chunkContents(chunkCode(code)) {
		if !utf8.ValidString(content) {
			t.Errorf("chunk %d contains invalid UTF-8", i)
		}
		if len(content) > codeChunkSize {
			t.Errorf("chunk %d is %d bytes, exceeds limit", i, len(content))
		}
		rebuilt.WriteString(content)
	}
	if rebuilt.String() != code {
		t.Error("code corrupted across chunk boundary")
	}
}

func TestNotionLanguage(t *testing.T) {
	cases := map[string]string{
		"golang":     "go",
		"Python3":    "python",
		"cpp":        "c++",
		"mysql":      "sql",
		"brainfuck":  "plain text",
		"":           "plain text",
		"TypeScript": "typescript",
	}
	for in, want := range cases {
		if got := notionLanguage(in); got != want {
			t.Errorf("notionLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}
