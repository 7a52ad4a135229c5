package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/oniwiki/confluence-mcp/confluence"
)

func newTestServer(t *testing.T, handler http.Handler) *Server {
	t.Helper()
	backend := httptest.NewServer(handler)
	t.Cleanup(backend.Close)
	client := confluence.NewClient(backend.URL,
		confluence.BasicAuth{Username: "user", Token: "token"},
		confluence.WithHTTPClient(backend.Client()),
		confluence.WithSpacesCacheDir(t.TempDir()),
	)
	return NewServer(client)
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned protocol error: %v", err)
	}
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func TestSearchToolNormalizesFreeText(t *testing.T) {
	var gotCQL, gotLimit string
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCQL = r.URL.Query().Get("cql")
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`{"results": [{"id": "1", "type": "page", "title": "PRD", "space": {"key": "SD"}}]}`))
	}))

	_, handler := srv.searchTool()
	result := callTool(t, handler, map[string]interface{}{
		"query":  "PRD",
		"spaces": []interface{}{"SD"},
		"limit":  float64(10),
	})

	if result.IsError {
		t.Fatalf("tool error: %s", resultText(t, result))
	}
	if gotCQL != `text ~ "PRD" AND space in ("SD")` {
		t.Errorf("cql sent = %q", gotCQL)
	}
	if gotLimit != "10" {
		t.Errorf("limit sent = %q", gotLimit)
	}

	var payload struct {
		Query string `json:"query"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Count != 1 {
		t.Errorf("count = %d, want 1", payload.Count)
	}
	if payload.Query != `text ~ "PRD" AND space in ("SD")` {
		t.Errorf("reported query = %q", payload.Query)
	}
}

func TestSearchToolPassesThroughCQL(t *testing.T) {
	var gotCQL string
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCQL = r.URL.Query().Get("cql")
		_, _ = w.Write([]byte(`{"results": []}`))
	}))

	_, handler := srv.searchTool()
	result := callTool(t, handler, map[string]interface{}{
		"query": "space = SD AND label = draft",
	})

	if result.IsError {
		t.Fatalf("tool error: %s", resultText(t, result))
	}
	if gotCQL != "space = SD AND label = draft" {
		t.Errorf("cql sent = %q, want input unchanged", gotCQL)
	}
}

func TestSearchToolRejectsEmptyQuery(t *testing.T) {
	called := false
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, handler := srv.searchTool()

	for _, args := range []map[string]interface{}{
		{},
		{"query": ""},
		{"query": "   "},
	} {
		result := callTool(t, handler, args)
		if !result.IsError {
			t.Errorf("args %v: expected tool error", args)
		}
	}
	if called {
		t.Error("empty query must not reach the remote service")
	}
}

func TestSearchToolRejectsNegativeLimit(t *testing.T) {
	called := false
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, handler := srv.searchTool()
	result := callTool(t, handler, map[string]interface{}{
		"query": "PRD",
		"limit": float64(-1),
	})

	if !result.IsError {
		t.Error("expected tool error for negative limit")
	}
	if called {
		t.Error("invalid limit must not reach the remote service")
	}
}

func TestGetSpacesTool(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [
			{"id": 1, "key": "SD", "name": "Software Development", "type": "global"},
			{"id": 2, "key": "MKT", "name": "Marketing", "type": "global"}
		]}`))
	}))

	_, handler := srv.getSpacesTool()
	result := callTool(t, handler, map[string]interface{}{})

	if result.IsError {
		t.Fatalf("tool error: %s", resultText(t, result))
	}

	var payload struct {
		Spaces []confluence.Space `json:"spaces"`
		Count  int                `json:"count"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Count != 2 || payload.Spaces[1].Key != "MKT" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestGetPageTool(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/child/comment"):
			_, _ = w.Write([]byte(`{"results": [{"id": "555", "container": {"id": "12345"}, "body": {"storage": {"value": "<p>LGTM</p>"}}}]}`))
		case strings.HasSuffix(r.URL.Path, "/label"):
			_, _ = w.Write([]byte(`{"results": [{"id": "10", "name": "draft", "prefix": "global"}]}`))
		default:
			_, _ = w.Write([]byte(`{"id": "12345", "title": "PRD", "space": {"key": "SD"}, "version": {"number": 3}, "body": {"storage": {"value": "<p>hello</p>"}}}`))
		}
	}))

	_, handler := srv.getPageTool()
	result := callTool(t, handler, map[string]interface{}{
		"page_id":          "12345",
		"include_comments": true,
		"include_labels":   true,
	})

	if result.IsError {
		t.Fatalf("tool error: %s", resultText(t, result))
	}

	var payload struct {
		Page     *confluence.Page     `json:"page"`
		Comments []confluence.Comment `json:"comments"`
		Labels   []confluence.Label   `json:"labels"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Page == nil || payload.Page.Title != "PRD" {
		t.Errorf("page = %+v", payload.Page)
	}
	if len(payload.Comments) != 1 || len(payload.Labels) != 1 {
		t.Errorf("comments = %d labels = %d, want 1 each", len(payload.Comments), len(payload.Labels))
	}
}

func TestGetPageToolRequiresPageID(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the backend")
	}))

	_, handler := srv.getPageTool()
	result := callTool(t, handler, map[string]interface{}{})
	if !result.IsError {
		t.Error("expected tool error without page_id")
	}
}

func TestCreatePageTool(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "999", "title": "New Page", "space": {"key": "SD"}, "version": {"number": 1}}`))
	}))

	_, handler := srv.createPageTool()
	result := callTool(t, handler, map[string]interface{}{
		"space_key": "SD",
		"title":     "New Page",
		"content":   "<p>body</p>",
	})

	if result.IsError {
		t.Fatalf("tool error: %s", resultText(t, result))
	}

	var payload struct {
		Page *confluence.Page `json:"page"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Page.ID != "999" {
		t.Errorf("page = %+v", payload.Page)
	}
}

func TestDeletePageTool(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	_, handler := srv.deletePageTool()
	result := callTool(t, handler, map[string]interface{}{"page_id": "12345"})

	if result.IsError {
		t.Fatalf("tool error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), `"deleted":true`) {
		t.Errorf("result = %s", resultText(t, result))
	}
}

func TestAddCommentTool(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "556", "container": {"id": "12345"}, "body": {"storage": {"value": "<p>nice</p>"}}}`))
	}))

	_, handler := srv.addCommentTool()
	result := callTool(t, handler, map[string]interface{}{
		"page_id": "12345",
		"content": "<p>nice</p>",
	})

	if result.IsError {
		t.Fatalf("tool error: %s", resultText(t, result))
	}
}

func TestToolErrorSurfacesAPIFailure(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "no such page"}`))
	}))

	_, handler := srv.getPageTool()
	result := callTool(t, handler, map[string]interface{}{"page_id": "404"})

	if !result.IsError {
		t.Fatal("expected tool error for missing page")
	}
	if text := resultText(t, result); !strings.Contains(text, "404") {
		t.Errorf("error text = %q, should mention the status", text)
	}
}

func TestToolsRegistered(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tools := srv.tools()
	want := map[string]bool{
		"confluence_search":             false,
		"confluence_get_spaces":         false,
		"confluence_get_page":           false,
		"confluence_create_page":        false,
		"confluence_update_page":        false,
		"confluence_delete_page":        false,
		"confluence_get_page_children":  false,
		"confluence_get_page_ancestors": false,
		"confluence_get_comments":       false,
		"confluence_add_comment":        false,
		"confluence_get_labels":         false,
		"confluence_add_label":          false,
	}

	for _, tool := range tools {
		if _, ok := want[tool.Tool.Name]; !ok {
			t.Errorf("unexpected tool %q", tool.Tool.Name)
			continue
		}
		want[tool.Tool.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %q not registered", name)
		}
	}
}
