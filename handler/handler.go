package handler

import (
	"n8n2api/config"
	"n8n2api/metrics"
	"n8n2api/service"
	"n8n2api/store"
)

// APIHandler API 处理器
type APIHandler struct {
	webhook    *service.WebhookService
	config     *config.Config
	metrics    *metrics.Metrics  // nil 时不上报
	requestLog *store.RequestLog // nil 时不落库
}

// NewAPIHandler 创建 API 处理器
func NewAPIHandler(webhook *service.WebhookService, cfg *config.Config, m *metrics.Metrics, rl *store.RequestLog) *APIHandler {
	return &APIHandler{
		webhook:    webhook,
		config:     cfg,
		metrics:    m,
		requestLog: rl,
	}
}
