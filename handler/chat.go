package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"n8n2api/logger"
	"n8n2api/middleware"
	"n8n2api/service"
	"n8n2api/store"
	"n8n2api/types"
)

// HandleChatCompletions 处理 /v1/chat/completions 请求
//
// 所有在响应开始后发生的失败都以带内 SSE error 事件送达,保证客户端
// 看到的始终是合法的 SSE 流。
func (h *APIHandler) HandleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "invalid_request_error")
		return
	}

	caller, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "verified caller identity is required", "invalid_request_error")
		return
	}

	// 配置前置检查,未配置时绝不触达上游
	if !h.config.Configured() {
		logger.Error("❌ n8n webhook URL 未配置")
		h.record("chat_completions", "not_configured")
		h.writeError(w, http.StatusInternalServerError,
			"n8n webhook URL not configured. Please set the N8N_WEBHOOK_URL.", "api_error")
		return
	}

	var req types.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("❌ 无效的 JSON: %v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON", "invalid_request_error")
		return
	}

	if len(req.Messages) == 0 {
		h.writeError(w, http.StatusBadRequest,
			"messages field is required and must be a non-empty array", "invalid_request_error")
		return
	}

	envelope := h.buildEnvelope(&req, caller)

	logger.Info("📩 n8n chat completion request from user: %s", caller.Email)
	if h.config.N8N.Debug {
		logger.Debug("  └─ Model: %s", envelope.Model)
		logger.Debug("  └─ Messages Count: %d", len(envelope.Messages))
		logger.Debug("  └─ Stream: %v", envelope.Stream)
		logger.Debug("  └─ Temperature: %.2f MaxTokens: %d TopP: %.2f",
			envelope.Temperature, envelope.MaxTokens, envelope.TopP)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Streaming not supported", "api_error")
		return
	}

	start := time.Now()
	frames, result := h.webhook.Relay(r.Context(), envelope)

	// 写失败后继续排空通道:result 要等通道关闭才能读,
	// 上游连接也由 Relay 在排空过程中自行收尾
	var writeFailed bool
	for frame := range frames {
		if writeFailed {
			continue
		}
		if _, err := w.Write(frame); err != nil {
			logger.Warn("⚠️  写入客户端失败,终止转发: %v", err)
			writeFailed = true
			continue
		}
		flusher.Flush()
	}

	h.finishRelay(caller, envelope, result, time.Since(start))
}

// buildEnvelope 组装发往 webhook 的 envelope,缺省采样参数由配置补齐,
// 调用者身份原样嵌入 user 字段
func (h *APIHandler) buildEnvelope(req *types.ChatCompletionRequest, caller types.CallerIdentity) *types.WebhookRequest {
	n8n := h.config.N8N

	model := req.Model
	if model == "" {
		model = n8n.ModelName
	}

	temperature := n8n.DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := n8n.DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	topP := n8n.DefaultTopP
	if req.TopP != nil {
		topP = *req.TopP
	}

	return &types.WebhookRequest{
		Model:            model,
		Messages:         req.Messages,
		Stream:           req.Stream,
		Temperature:      temperature,
		MaxTokens:        maxTokens,
		TopP:             topP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		User:             caller,
	}
}

// finishRelay 在交换结束后上报指标并写请求日志,绝不影响转发本身
func (h *APIHandler) finishRelay(caller types.CallerIdentity, envelope *types.WebhookRequest, result *service.RelayResult, elapsed time.Duration) {
	mode := "buffered"
	if envelope.Stream {
		mode = "streaming"
	}

	if h.metrics != nil {
		h.metrics.RecordRelay(mode, elapsed, result.Outcome)
	}
	if h.requestLog != nil {
		h.requestLog.Record(store.Entry{
			UserEmail: caller.Email,
			Model:     envelope.Model,
			Stream:    envelope.Stream,
			Outcome:   result.Outcome,
			Duration:  elapsed,
		})
	}
}
