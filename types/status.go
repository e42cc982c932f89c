package types

// StatusResponse 集成状态响应
//
// RequestsLast24h 仅在启用请求日志时存在
type StatusResponse struct {
	Status          string `json:"status"` // ready | not_configured
	Configured      bool   `json:"configured"`
	Model           string `json:"model"`
	Description     string `json:"description"`
	RequestsLast24h *int64 `json:"requests_last_24h,omitempty"`
}

// Embedding 单条占位 embedding
type Embedding struct {
	Object    string    `json:"object"`
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// EmbeddingUsage embedding 的 token 统计
type EmbeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// EmbeddingResponse embedding 占位响应
type EmbeddingResponse struct {
	Object string         `json:"object"`
	Data   []Embedding    `json:"data"`
	Model  string         `json:"model"`
	Usage  EmbeddingUsage `json:"usage"`
}
