package handler

import (
	"encoding/json"
	"net/http"

	"n8n2api/logger"
	"n8n2api/middleware"
	"n8n2api/types"
)

// embeddingDimensions 占位向量的维度
const embeddingDimensions = 1536

// HandleEmbeddings 处理 /v1/embeddings 请求
//
// 占位实现:接受任意 JSON,返回固定的全零向量。webhook 侧的 embedding
// 生成尚未实现。
func (h *APIHandler) HandleEmbeddings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "invalid_request_error")
		return
	}

	caller, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "verified caller identity is required", "invalid_request_error")
		return
	}

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON", "invalid_request_error")
		return
	}

	logger.Info("📩 n8n embedding request from user: %s", caller.Email)

	response := types.EmbeddingResponse{
		Object: "list",
		Data: []types.Embedding{
			{
				Object:    "embedding",
				Embedding: make([]float64, embeddingDimensions),
				Index:     0,
			},
		},
		Model: h.config.N8N.ModelName,
		Usage: types.EmbeddingUsage{},
	}

	h.record("embeddings", "ok")
	h.writeJSON(w, http.StatusOK, response)
}
