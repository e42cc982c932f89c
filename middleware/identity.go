package middleware

import (
	"context"
	"net/http"

	"n8n2api/logger"
	"n8n2api/types"
)

type contextKey string

const identityKey contextKey = "caller_identity"

// 身份头由前置认证层写入,到达本服务时视为已验证
const (
	headerUserID    = "X-User-Id"
	headerUserName  = "X-User-Name"
	headerUserEmail = "X-User-Email"
	headerUserRole  = "X-User-Role"
)

// identityExempt 无需调用者身份的路径
var identityExempt = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Identity 从可信前置代理的请求头提取已验证的调用者身份
//
// 认证本身由外部身份层完成;这里只负责把验证结果转成 CallerIdentity
// 放进请求上下文。缺少用户 ID 的请求在到达业务路由前被拒绝。
type Identity struct{}

// NewIdentity 创建身份中间件
func NewIdentity() *Identity {
	return &Identity{}
}

// Middleware returns the identity extraction middleware handler
func (im *Identity) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, exempt := identityExempt[r.URL.Path]; exempt {
			next.ServeHTTP(w, r)
			return
		}

		caller := types.CallerIdentity{
			ID:    r.Header.Get(headerUserID),
			Name:  r.Header.Get(headerUserName),
			Email: r.Header.Get(headerUserEmail),
			Role:  r.Header.Get(headerUserRole),
		}

		if caller.ID == "" {
			logger.Warn("⚠️  缺少调用者身份 | client_ip=%s path=%s", getClientIP(r), r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = types.WriteJSON(w, types.ErrorResponse{
				Error: types.ErrorDetail{
					Message: "verified caller identity is required",
					Type:    "invalid_request_error",
					Code:    "missing_identity",
				},
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), caller)))
	})
}

// WithIdentity 将调用者身份写入上下文
func WithIdentity(ctx context.Context, caller types.CallerIdentity) context.Context {
	return context.WithValue(ctx, identityKey, caller)
}

// IdentityFrom 从上下文取出调用者身份
func IdentityFrom(ctx context.Context) (types.CallerIdentity, bool) {
	caller, ok := ctx.Value(identityKey).(types.CallerIdentity)
	return caller, ok
}
