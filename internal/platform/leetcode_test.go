package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/solvesync/solvesync/internal/model"
)

func TestMatches(t *testing.T) {
	adapter := NewLeetCodeAdapter(nil)

	cases := []struct {
		url  string
		want bool
	}{
		{"https://leetcode.com/problems/two-sum/", true},
		{"https://leetcode.com/problems/two-sum/?envType=daily-question", true},
		{"https://leetcode.cn/problems/two-sum/", true},
		{"https://leetcode.com/problemset/all/", false},
		{"https://example.com/problems/two-sum/", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := adapter.Matches(tc.url); got != tc.want {
			t.Errorf("Matches(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestTitleSlug(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://leetcode.com/problems/two-sum/", "two-sum"},
		{"https://leetcode.com/problems/lru-cache/submissions/123/", "lru-cache"},
		{"https://leetcode.cn/problems/merge-k-sorted-lists?tab=description", "merge-k-sorted-lists"},
		{"https://leetcode.com/problemset/", ""},
	}

	for _, tc := range cases {
		if got := TitleSlug(tc.url); got != tc.want {
			t.Errorf("TitleSlug(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestFetchProblem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables struct {
				TitleSlug string `json:"titleSlug"`
			} `json:"variables"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Variables.TitleSlug != "two-sum" {
			t.Errorf("titleSlug = %q, want two-sum", req.Variables.TitleSlug)
		}

		fmt.Fprint(w, `{"data":{"question":{
			"questionFrontendId":"1",
			"title":"Two Sum",
			"content":"<p>Given an array...</p>",
			"difficulty":"Easy",
			"topicTags":[{"name":"Array","slug":"array"},{"name":"Hash Table","slug":"hash-table"}],
			"similarQuestions":"[{\"titleSlug\":\"3sum\"},{\"titleSlug\":\"4sum\"}]"
		}}}`)
	}))
	defer srv.Close()

	adapter := NewLeetCodeAdapter(&LeetCodeConfig{Endpoint: srv.URL})

	problem, err := adapter.FetchProblem(context.Background(), "https://leetcode.com/problems/two-sum/")
	if err != nil {
		t.Fatalf("FetchProblem: %v", err)
	}

	if problem.ExternalID != "1" || problem.Title != "Two Sum" {
		t.Errorf("unexpected problem: %+v", problem)
	}
	if problem.Difficulty != model.DifficultyEasy {
		t.Errorf("difficulty = %q", problem.Difficulty)
	}
	if len(problem.Tags) != 2 || problem.Tags[0].Name != "Array" {
		t.Errorf("tags = %+v", problem.Tags)
	}
	if len(problem.RelatedIDs) != 2 || problem.RelatedIDs[0] != "3sum" {
		t.Errorf("related = %+v, want platform order preserved", problem.RelatedIDs)
	}
}

func TestFetchProblemNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"question":null}}`)
	}))
	defer srv.Close()

	adapter := NewLeetCodeAdapter(&LeetCodeConfig{Endpoint: srv.URL})

	if _, err := adapter.FetchProblem(context.Background(), "https://leetcode.com/problems/no-such-problem/"); err == nil {
		t.Fatal("want error for missing question")
	}
}

func TestParseSimilarQuestions(t *testing.T) {
	if got := parseSimilarQuestions(""); got != nil {
		t.Errorf("empty input should yield nil, got %v", got)
	}
	if got := parseSimilarQuestions("not json"); got != nil {
		t.Errorf("bad input should yield nil, got %v", got)
	}
	got := parseSimilarQuestions(`[{"titleSlug":"a"},{"titleSlug":""},{"titleSlug":"b"}]`)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v", got)
	}
}

func TestRegistryDetect(t *testing.T) {
	registry := DefaultRegistry()

	if registry.Detect("https://leetcode.com/problems/two-sum/") == nil {
		t.Error("LeetCode URL should resolve to an adapter")
	}
	if registry.Detect("https://example.com/") != nil {
		t.Error("unknown URL should not resolve")
	}
	if !registry.IsSupported("https://leetcode.cn/problems/two-sum/") {
		t.Error("leetcode.cn should be supported")
	}
	if len(registry.Supported()) == 0 {
		t.Error("Supported should list at least one platform")
	}
}
