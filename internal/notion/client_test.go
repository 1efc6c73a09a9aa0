package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/solvesync/solvesync/internal/model"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(&Config{APIKey: "secret", BaseURL: srv.URL})
}

func TestQueryByURLFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer auth: %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Notion-Version") == "" {
			t.Error("missing Notion-Version header")
		}

		var req struct {
			Filter struct {
				Property string `json:"property"`
				URL      struct {
					Equals string `json:"equals"`
				} `json:"url"`
			} `json:"filter"`
			PageSize int `json:"page_size"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Filter.Property != "URL" || req.PageSize != 1 {
			t.Errorf("unexpected query payload: %+v", req)
		}

		fmt.Fprint(w, `{"results":[{"id":"page-1","properties":{
			"Name":{"title":[{"plain_text":"1. Two Sum"}]},
			"URL":{"url":"https://leetcode.com/problems/two-sum/"},
			"Difficulty":{"select":{"name":"Easy"}},
			"Date Solved":{"date":{"start":"2026-08-28"}}
		}}],"has_more":false}`)
	}))
	defer srv.Close()

	record, err := newTestClient(srv).QueryByURL(context.Background(), "db-1", "https://leetcode.com/problems/two-sum/")
	if err != nil {
		t.Fatalf("QueryByURL: %v", err)
	}
	if record == nil || record.ID != "page-1" || record.Title != "1. Two Sum" {
		t.Errorf("got %+v", record)
	}
	if record.Difficulty != model.DifficultyEasy || record.SolvedDate != "2026-08-28" {
		t.Errorf("got %+v", record)
	}
}

func TestQueryByURLNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[],"has_more":false}`)
	}))
	defer srv.Close()

	record, err := newTestClient(srv).QueryByURL(context.Background(), "db-1", "https://leetcode.com/problems/x/")
	if err != nil {
		t.Fatalf("QueryByURL: %v", err)
	}
	if record != nil {
		t.Errorf("want nil, got %+v", record)
	}
}

func TestQueryAllPagesPagination(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)

		if calls == 1 {
			if _, ok := req["start_cursor"]; ok {
				t.Error("first page must not carry start_cursor")
			}
			fmt.Fprint(w, `{"results":[{"id":"p1","properties":{"Name":{"title":[{"plain_text":"A"}]}}}],"has_more":true,"next_cursor":"cur-2"}`)
			return
		}
		if req["start_cursor"] != "cur-2" {
			t.Errorf("second page cursor = %v", req["start_cursor"])
		}
		fmt.Fprint(w, `{"results":[{"id":"p2","properties":{"Name":{"title":[{"plain_text":"B"}]}}}],"has_more":false}`)
	}))
	defer srv.Close()

	records, err := newTestClient(srv).QueryAllPages(context.Background(), "db-1")
	if err != nil {
		t.Fatalf("QueryAllPages: %v", err)
	}
	if len(records) != 2 || records[0].ID != "p1" || records[1].ID != "p2" {
		t.Errorf("got %+v", records)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"API token is invalid."}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).QueryByURL(context.Background(), "db-1", "u")

	var serr *StoreError
	if !errors.As(err, &serr) {
		t.Fatalf("want *StoreError, got %v", err)
	}
	if serr.Status != http.StatusUnauthorized || !strings.Contains(serr.Message, "token is invalid") {
		t.Errorf("got %+v", serr)
	}
}

func TestCountSolutions(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, `{"results":[
				{"type":"heading_2","heading_2":{"rich_text":[{"plain_text":"Solution 1 (2026-08-01)"}]}},
				{"type":"paragraph"},
				{"type":"heading_2","heading_2":{"rich_text":[{"plain_text":"Notes"}]}}
			],"has_more":true,"next_cursor":"c2"}`)
			return
		}
		if !strings.Contains(r.URL.RawQuery, "start_cursor=c2") {
			t.Errorf("missing cursor in %q", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"results":[
			{"type":"heading_2","heading_2":{"rich_text":[{"plain_text":"Solution 2 (2026-08-15)"}]}}
		],"has_more":false}`)
	}))
	defer srv.Close()

	count, err := newTestClient(srv).CountSolutions(context.Background(), "page-1")
	if err != nil {
		t.Fatalf("CountSolutions: %v", err)
	}
	// 只统计 "Solution N" 标题块，跨页累加
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestAppendSolution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		var req struct {
			Children []json.RawMessage `json:"children"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Children) == 0 {
			t.Error("append payload must carry blocks")
		}
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	artifact := &model.SubmissionArtifact{
		Problem: model.Problem{Title: "Two Sum"},
		Code:    "func twoSum() {}",
		URL:     "https://leetcode.com/problems/two-sum/",
	}

	record, err := newTestClient(srv).AppendSolution(context.Background(), "page-1", artifact, 2)
	if err != nil {
		t.Fatalf("AppendSolution: %v", err)
	}
	if record.ID != "page-1" {
		t.Errorf("record ID = %q", record.ID)
	}
}

func TestIsConfigured(t *testing.T) {
	if NewClient(&Config{}).IsConfigured() {
		t.Error("empty key must not count as configured")
	}
	if !NewClient(&Config{APIKey: "x"}).IsConfigured() {
		t.Error("key set should count as configured")
	}
}
