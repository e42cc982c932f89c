package types

import "encoding/json"

// ChatMessage OpenAI 消息格式
//
// 除 role/content 外的字段原样透传给 webhook,因此未知键保存在 Extra 中,
// 序列化时再合并回去。
type ChatMessage struct {
	Role    string                 `json:"-"`
	Content string                 `json:"-"`
	Extra   map[string]interface{} `json:"-"`
}

// MarshalJSON 合并 role/content 与透传字段
func (m ChatMessage) MarshalJSON() ([]byte, error) {
	obj := make(map[string]interface{}, len(m.Extra)+2)
	for k, v := range m.Extra {
		obj[k] = v
	}
	if m.Role != "" {
		obj["role"] = m.Role
	}
	if m.Content != "" {
		obj["content"] = m.Content
	}
	return json.Marshal(obj)
}

// UnmarshalJSON 拆出 role/content,其余键进 Extra
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if v, ok := obj["role"].(string); ok {
		m.Role = v
		delete(obj, "role")
	}
	if v, ok := obj["content"].(string); ok {
		m.Content = v
		delete(obj, "content")
	}
	if len(obj) > 0 {
		m.Extra = obj
	}
	return nil
}

// ChatCompletionRequest OpenAI 聊天完成请求
//
// 采样参数用指针区分"未提供"与显式零值,未提供时由配置默认值补齐。
type ChatCompletionRequest struct {
	Model            string        `json:"model"`
	Messages         []ChatMessage `json:"messages"`
	Stream           bool          `json:"stream"`
	Temperature      *float64      `json:"temperature,omitempty"`
	MaxTokens        *int          `json:"max_tokens,omitempty"`
	TopP             *float64      `json:"top_p,omitempty"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
	User             string        `json:"user,omitempty"`
}

// ChatCompletionChoice 响应选项
type ChatCompletionChoice struct {
	Index        int          `json:"index"`
	Message      *ChatMessage `json:"message,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

// ChatCompletionUsage Token 使用统计
type ChatCompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse OpenAI 聊天完成响应(非流式合成)
type ChatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   ChatCompletionUsage    `json:"usage"`
}
