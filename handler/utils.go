package handler

import (
	"encoding/json"
	"net/http"

	"n8n2api/logger"
	"n8n2api/types"
)

// writeJSON 写入 JSON 响应
func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// header 已写出,只能记录错误
		logger.Error("❌ JSON 编码失败: %v", err)
	}
}

// writeError 写入错误响应
func (h *APIHandler) writeError(w http.ResponseWriter, status int, message, errorType string) {
	h.writeJSON(w, status, types.ErrorResponse{
		Error: types.ErrorDetail{
			Message: message,
			Type:    errorType,
		},
	})
}

// record 上报一次非转发端点的请求结果
func (h *APIHandler) record(endpoint, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordRequest(endpoint, outcome)
	}
}
