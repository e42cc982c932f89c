package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/imroc/req/v3"

	"n8n2api/config"
	"n8n2api/logger"
	"n8n2api/ssestream"
	"n8n2api/types"
	"n8n2api/utils"
)

// retryBackoff 传输层失败后的固定重试间隔
const retryBackoff = 500 * time.Millisecond

// Relay 结果分类,用于请求日志与指标
const (
	OutcomeOK             = "ok"
	OutcomeUpstreamError  = "upstream_error"
	OutcomeTransportError = "transport_error"
	OutcomeCanceled       = "canceled"
)

// RelayResult 一次转发的最终结果,帧通道关闭后可读
type RelayResult struct {
	Outcome        string
	UpstreamStatus int
}

// WebhookService n8n webhook 上游客户端与流转换器
type WebhookService struct {
	cfg    config.N8NConfig
	client *req.Client
}

// NewWebhookService 创建 webhook 服务
//
// 超时是覆盖连接+传输全程的单一截止时间,不拆分阶段。TLSVerify=false 时
// 跳过上游证书校验,仅用于可信内网的 n8n 部署。
func NewWebhookService(cfg config.N8NConfig) *WebhookService {
	client := req.C().SetTimeout(cfg.Timeout)
	if !cfg.TLSVerify {
		client.EnableInsecureSkipVerify()
	}
	return &WebhookService{
		cfg:    cfg,
		client: client,
	}
}

// Relay 将一次 webhook 交互转换为可直接写入响应体的 SSE 帧序列
//
// 帧按上游顺序产出;ctx 取消时上游连接立即关闭并结束序列。错误路径
// 恰好产出一个 error 帧:
//   - 非 2xx   → {"error": "n8n webhook error: <body>"}
//   - 连接失败 → {"error": "Connection error: <cause>"}
//   - 其他失败 → {"error": "Unexpected error: <cause>"}
//
// error 帧之后不再发送 [DONE],与既有客户端的预期保持一致。
//
// RelayResult 在帧通道关闭之后才可安全读取。
func (ws *WebhookService) Relay(ctx context.Context, envelope *types.WebhookRequest) (<-chan []byte, *RelayResult) {
	frames := make(chan []byte, 10)
	result := &RelayResult{Outcome: OutcomeCanceled}

	go func() {
		defer close(frames)

		body := utils.MarshalToBytes(envelope)
		if ws.cfg.Debug {
			logger.Debug("📤 Webhook envelope:\n%s", utils.MarshalIndentToString(envelope))
		}

		resp, err := ws.post(ctx, body)
		if err != nil {
			if ctx.Err() != nil {
				logger.Warn("⚠️  请求被取消: %v", ctx.Err())
				return
			}
			logger.Error("❌ n8n webhook 请求失败: %v", err)
			result.Outcome = OutcomeTransportError
			ws.emit(ctx, frames, ssestream.ErrorFrame(classifyTransportError(err)))
			return
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		result.UpstreamStatus = resp.StatusCode
		logger.Info("✅ 收到上游响应: HTTP %d", resp.StatusCode)

		if !resp.IsSuccessState() {
			errBody, _ := io.ReadAll(resp.Body)
			text := strings.TrimSpace(string(errBody))
			logger.Error("❌ n8n webhook 错误: %d - %s", resp.StatusCode, text)
			result.Outcome = OutcomeUpstreamError
			ws.emit(ctx, frames, ssestream.ErrorFrame("n8n webhook error: "+text))
			return
		}

		if envelope.Stream {
			result.Outcome = ws.relayStream(ctx, frames, resp.Body)
			return
		}
		result.Outcome = ws.relayBuffered(ctx, frames, resp.Body, envelope.Model)
	}()

	return frames, result
}

// post 发送 envelope,传输层失败时按配置的次数重试
//
// 只重试连接/超时这类传输错误;HTTP 错误状态不重试,避免在上游工作流
// 中产生重复副作用。重试发生在任何帧产出之前。
func (ws *WebhookService) post(ctx context.Context, body []byte) (*req.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= ws.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("🔁 重试 webhook 请求 (%d/%d)", attempt, ws.cfg.MaxRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff):
			}
		}

		request := ws.client.R().
			SetContext(ctx).
			SetContentType("application/json").
			SetBodyBytes(body).
			DisableAutoReadResponse()
		if ws.cfg.AuthToken != "" {
			request.SetBearerAuthToken(ws.cfg.AuthToken)
		}

		resp, err := request.Post(ws.cfg.WebhookURL)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// relayStream 逐行透传上游的流式输出
//
// 已带 data: 前缀的行只补空行终止符,裸行包一层 data: 框架,空行丢弃。
// 不注入 [DONE] 哨兵,由上游工作流自行发送。
func (ws *WebhookService) relayStream(ctx context.Context, frames chan<- []byte, body io.Reader) string {
	chunkCount := 0
	scanner := ssestream.NewLineScanner(&contextReader{ctx: ctx, reader: body})
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r\n")
		if line == "" {
			continue
		}
		chunkCount++
		if !ws.emit(ctx, frames, ssestream.PassThrough(line)) {
			return OutcomeCanceled
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			logger.Warn("⚠️  读取流时客户端取消: %v", ctx.Err())
			return OutcomeCanceled
		}
		logger.Error("❌ 读取上游流失败: %v", err)
		ws.emit(ctx, frames, ssestream.ErrorFrame(classifyTransportError(err)))
		return OutcomeTransportError
	}

	logger.Info("✅ 流式透传完成,共 %d 个 chunk", chunkCount)
	return OutcomeOK
}

// relayBuffered 将非流式响应合成一个 OpenAI 形状的 completion 帧加 [DONE]
//
// content 字段缺失时回退到 response 字段,再缺失时回退为整个响应体的
// 字符串形式;上游不报告 token 用量,usage 固定为 0。
func (ws *WebhookService) relayBuffered(ctx context.Context, frames chan<- []byte, body io.Reader, model string) string {
	raw, err := io.ReadAll(body)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeCanceled
		}
		logger.Error("❌ 读取上游响应失败: %v", err)
		ws.emit(ctx, frames, ssestream.ErrorFrame(classifyTransportError(err)))
		return OutcomeTransportError
	}

	content := extractContent(raw)

	completion := types.ChatCompletionResponse{
		ID:      newCompletionID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []types.ChatCompletionChoice{
			{
				Index: 0,
				Message: &types.ChatMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
		Usage: types.ChatCompletionUsage{},
	}

	frame, err := ssestream.FrameJSON(completion)
	if err != nil {
		logger.Error("❌ 合成 completion 编码失败: %v", err)
		ws.emit(ctx, frames, ssestream.ErrorFrame("Unexpected error: "+err.Error()))
		return OutcomeTransportError
	}
	if !ws.emit(ctx, frames, frame) {
		return OutcomeCanceled
	}
	if !ws.emit(ctx, frames, ssestream.DoneFrame()) {
		return OutcomeCanceled
	}

	logger.Info("✅ 非流式响应完成,内容 %d 字符", len(content))
	return OutcomeOK
}

// emit 在发送帧前响应 ctx 取消,返回是否发送成功
func (ws *WebhookService) emit(ctx context.Context, frames chan<- []byte, frame []byte) bool {
	select {
	case <-ctx.Done():
		return false
	case frames <- frame:
		return true
	}
}

// extractContent 按 content → response → 原始响应体 的顺序取回复内容
//
// 字段存在但不是字符串时,以紧凑 JSON 形式嵌入,不回退到整个响应体
func extractContent(raw []byte) string {
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"content", "response"} {
			v, ok := obj[key]
			if !ok {
				continue
			}
			if s, ok := v.(string); ok {
				return s
			}
			return utils.MarshalToString(v)
		}
	}
	return strings.TrimSpace(string(raw))
}

// newCompletionID 生成 chatcmpl- 前缀加 8 位小写十六进制的完成 ID
func newCompletionID() string {
	return "chatcmpl-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// classifyTransportError 区分连接类错误与其他意外错误的客户端可见文案
func classifyTransportError(err error) string {
	var netErr net.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &opErr),
		errors.As(err, &dnsErr),
		errors.As(err, &netErr) && netErr.Timeout(),
		errors.Is(err, context.DeadlineExceeded):
		return "Connection error: " + err.Error()
	default:
		return "Unexpected error: " + err.Error()
	}
}

// contextReader 包装 io.Reader,使其能响应 context 取消
type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

// Read 实现 io.Reader 接口,在每次读取前检查 context 状态
func (cr *contextReader) Read(p []byte) (n int, err error) {
	select {
	case <-cr.ctx.Done():
		return 0, cr.ctx.Err()
	default:
	}
	return cr.reader.Read(p)
}
