package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/solvesync/solvesync/internal/model"
)

func geminiStub(t *testing.T, responseText string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, responseText)
	}))
}

func TestAnalyzeParsesJSON(t *testing.T) {
	srv := geminiStub(t, `{"timeComplexity":"O(n)","spaceComplexity":"O(1)","approach":"Two Pointers","tips":"- watch the edges"}`)
	defer srv.Close()

	analyzer := NewSolutionAnalyzer(NewGeminiClient(&GeminiConfig{APIKey: "key", BaseURL: srv.URL}))

	analysis, err := analyzer.Analyze(context.Background(), &AnalyzeRequest{
		ProblemTitle: "167. Two Sum II",
		Difficulty:   model.DifficultyMedium,
		Code:         "func twoSum() {}",
		Language:     "golang",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.TimeComplexity != "O(n)" || analysis.Approach != "Two Pointers" {
		t.Errorf("unexpected analysis: %+v", analysis)
	}
}

func TestAnalyzeStripsMarkdownFences(t *testing.T) {
	srv := geminiStub(t, "```json\n{\"timeComplexity\":\"O(n log n)\",\"spaceComplexity\":\"O(n)\",\"approach\":\"Heap\",\"tips\":\"- \"}\n```")
	defer srv.Close()

	analyzer := NewSolutionAnalyzer(NewGeminiClient(&GeminiConfig{APIKey: "key", BaseURL: srv.URL}))

	analysis, err := analyzer.Analyze(context.Background(), &AnalyzeRequest{ProblemTitle: "t", Code: "c"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Approach != "Heap" {
		t.Errorf("approach = %q, want Heap", analysis.Approach)
	}
}

func TestAnalyzeUnconfigured(t *testing.T) {
	analyzer := NewSolutionAnalyzer(NewGeminiClient(&GeminiConfig{}))

	_, err := analyzer.Analyze(context.Background(), &AnalyzeRequest{ProblemTitle: "t", Code: "c"})

	var aerr *AnalysisError
	if !errors.As(err, &aerr) {
		t.Fatalf("want *AnalysisError, got %v", err)
	}
}

func TestAnalyzeBadJSON(t *testing.T) {
	srv := geminiStub(t, "sorry, I cannot help with that")
	defer srv.Close()

	analyzer := NewSolutionAnalyzer(NewGeminiClient(&GeminiConfig{APIKey: "key", BaseURL: srv.URL}))

	var aerr *AnalysisError
	if _, err := analyzer.Analyze(context.Background(), &AnalyzeRequest{ProblemTitle: "t", Code: "c"}); !errors.As(err, &aerr) {
		t.Fatalf("want *AnalysisError for unparseable response, got %v", err)
	}
}

func TestAnalyzeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"quota exceeded"}}`)
	}))
	defer srv.Close()

	analyzer := NewSolutionAnalyzer(NewGeminiClient(&GeminiConfig{APIKey: "key", BaseURL: srv.URL}))

	_, err := analyzer.Analyze(context.Background(), &AnalyzeRequest{ProblemTitle: "t", Code: "c"})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("want quota error surfaced, got %v", err)
	}
}

func TestCleanJSONResponse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"裸 JSON", `{"a":1}`, `{"a":1}`},
		{"json 代码块", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"普通代码块", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"前后缀文字", "Here is the result: {\"a\":1} hope it helps", `{"a":1}`},
		{"带空白", "  \n{\"a\":1}\n  ", `{"a":1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanJSONResponse(tc.in); got != tc.want {
				t.Errorf("cleanJSONResponse(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestBuildAnalysisPromptIncludesMemories(t *testing.T) {
	prompt := buildAnalysisPrompt(&AnalyzeRequest{
		ProblemTitle: "1. Two Sum",
		Difficulty:   model.DifficultyEasy,
		Code:         "code",
		Language:     "golang",
		Memories:     []string{"3Sum (Medium) — approach: Two Pointers"},
	})
	if !strings.Contains(prompt, "3Sum") {
		t.Error("prompt should carry memory context")
	}
	if !strings.Contains(prompt, "timeComplexity") {
		t.Error("prompt should pin the JSON contract")
	}
}
