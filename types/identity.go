package types

// CallerIdentity 外部身份提供方校验后的调用者身份
//
// 原样嵌入发往 webhook 的 envelope 的 user 字段,供上游工作流做
// 授权或个性化处理。
type CallerIdentity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// WebhookRequest 发往 n8n webhook 的 envelope
//
// 字段始终完整输出(不使用 omitempty),与上游工作流的字段期望保持一致。
type WebhookRequest struct {
	Model            string         `json:"model"`
	Messages         []ChatMessage  `json:"messages"`
	Stream           bool           `json:"stream"`
	Temperature      float64        `json:"temperature"`
	MaxTokens        int            `json:"max_tokens"`
	TopP             float64        `json:"top_p"`
	FrequencyPenalty float64        `json:"frequency_penalty"`
	PresencePenalty  float64        `json:"presence_penalty"`
	User             CallerIdentity `json:"user"`
}
