package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"n8n2api/config"
	"n8n2api/middleware"
	"n8n2api/service"
	"n8n2api/store"
	"n8n2api/types"
)

func TestModelsEndpoint(t *testing.T) {
	h := newTestHandler(testConfig("http://example.invalid/webhook"))
	w := httptest.NewRecorder()
	h.HandleModels(w, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if raw["object"] != "list" {
		t.Errorf("object = %v, want list", raw["object"])
	}
	data := raw["data"].([]interface{})
	if len(data) != 1 {
		t.Fatalf("data length = %d, want 1 model", len(data))
	}
	model := data[0].(map[string]interface{})
	if model["id"] != "n8n-agent" || model["owned_by"] != "n8n" {
		t.Errorf("model = %v", model)
	}
	if perms, ok := model["permission"].([]interface{}); !ok || len(perms) != 0 {
		t.Errorf("permission = %v, want empty array", model["permission"])
	}
	if parent, present := model["parent"]; !present || parent != nil {
		t.Errorf("parent = %v (present=%v), want explicit null", parent, present)
	}
	if model["name"] != "N8n Agent" {
		t.Errorf("name = %v, want N8n Agent", model["name"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		webhookURL     string
		wantStatus     string
		wantConfigured bool
	}{
		{"placeholder url", config.PlaceholderWebhookURL, "not_configured", false},
		{"empty url", "", "not_configured", false},
		{"real url", "https://n8n.internal/webhook/abc", "ready", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(testConfig(tt.webhookURL))
			w := httptest.NewRecorder()
			h.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/", nil))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
			var resp types.StatusResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("body not JSON: %v", err)
			}
			if resp.Status != tt.wantStatus || resp.Configured != tt.wantConfigured {
				t.Errorf("got %+v, want status=%s configured=%v", resp, tt.wantStatus, tt.wantConfigured)
			}
			if resp.Model != "n8n-agent" {
				t.Errorf("model = %q, want n8n-agent", resp.Model)
			}
		})
	}
}

func TestStatusEndpointRequestCount(t *testing.T) {
	rl, err := store.Open(filepath.Join(t.TempDir(), "requests.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rl.Close()
	rl.Record(store.Entry{UserEmail: "a@example.com", Model: "n8n-agent", Outcome: "ok", Duration: 50 * time.Millisecond})
	rl.Record(store.Entry{UserEmail: "b@example.com", Model: "n8n-agent", Stream: true, Outcome: "ok", Duration: 900 * time.Millisecond})

	cfg := testConfig("https://n8n.internal/webhook/abc")
	h := NewAPIHandler(service.NewWebhookService(cfg.N8N), cfg, nil, rl)
	w := httptest.NewRecorder()
	h.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if resp.RequestsLast24h == nil {
		t.Fatal("requests_last_24h missing with request log enabled")
	}
	if *resp.RequestsLast24h != 2 {
		t.Errorf("requests_last_24h = %d, want 2", *resp.RequestsLast24h)
	}

	// 未启用请求日志时不输出该字段
	h = newTestHandler(cfg)
	w = httptest.NewRecorder()
	h.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Contains(w.Body.String(), "requests_last_24h") {
		t.Errorf("body = %q, requests_last_24h should be omitted", w.Body.String())
	}
}

func TestEmbeddingsPlaceholder(t *testing.T) {
	h := newTestHandler(testConfig("http://example.invalid/webhook"))
	req := httptest.NewRequest(http.MethodPost, "/v1/embeddings", strings.NewReader(`{"input":"anything"}`))
	req = req.WithContext(middleware.WithIdentity(req.Context(), testCaller()))
	w := httptest.NewRecorder()
	h.HandleEmbeddings(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp types.EmbeddingResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("data length = %d, want 1", len(resp.Data))
	}
	if len(resp.Data[0].Embedding) != 1536 {
		t.Errorf("embedding length = %d, want 1536", len(resp.Data[0].Embedding))
	}
	for i, v := range resp.Data[0].Embedding {
		if v != 0 {
			t.Fatalf("embedding[%d] = %v, want zero vector", i, v)
		}
	}
	if resp.Usage.PromptTokens != 0 || resp.Usage.TotalTokens != 0 {
		t.Errorf("usage = %+v, want zeroed", resp.Usage)
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"n8n-agent", "N8n Agent"},
		{"agent", "Agent"},
		{"my-long-model-name", "My Long Model Name"},
	}
	for _, tt := range tests {
		if got := titleCase(tt.in); got != tt.want {
			t.Errorf("titleCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
