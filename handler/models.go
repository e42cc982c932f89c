package handler

import (
	"net/http"
	"strings"
	"time"

	"n8n2api/logger"
	"n8n2api/types"
)

// HandleModels handles /v1/models request
// Returns the single configured n8n model
func (h *APIHandler) HandleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "invalid_request_error")
		return
	}

	n8n := h.config.N8N

	response := types.ModelList{
		Object: "list",
		Data: []types.Model{
			{
				ID:          n8n.ModelName,
				Object:      "model",
				Created:     time.Now().Unix(),
				OwnedBy:     "n8n",
				Permission:  []string{},
				Root:        n8n.ModelName,
				Parent:      nil,
				Name:        titleCase(n8n.ModelName),
				Description: n8n.ModelDescription,
			},
		},
	}

	h.record("models", "ok")
	h.writeJSON(w, http.StatusOK, response)
}

// HandleStatus handles GET / request
// Reports whether the webhook integration is configured
func (h *APIHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "invalid_request_error")
		return
	}

	configured := h.config.Configured()
	status := "ready"
	if !configured {
		status = "not_configured"
	}

	resp := types.StatusResponse{
		Status:      status,
		Configured:  configured,
		Model:       h.config.N8N.ModelName,
		Description: h.config.N8N.ModelDescription,
	}

	// 启用请求日志时附带近 24 小时的请求数
	if h.requestLog != nil {
		if n, err := h.requestLog.CountSince(time.Now().Add(-24 * time.Hour)); err == nil {
			resp.RequestsLast24h = &n
		} else {
			logger.Warn("⚠️  统计请求日志失败: %v", err)
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// titleCase 将 "n8n-agent" 这类模型 ID 转成展示名 "N8n Agent"
func titleCase(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "-", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// HandleHealth handles /health request
func (h *APIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"timestamp":  time.Now(),
		"configured": h.config.Configured(),
	})
}
