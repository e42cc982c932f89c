package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"n8n2api/config"
	"n8n2api/handler"
	"n8n2api/logger"
	"n8n2api/metrics"
	"n8n2api/middleware"
	"n8n2api/service"
	"n8n2api/store"
)

func main() {
	// Load .env file at the very beginning
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: .env file not found or cannot be loaded: %v", err)
		log.Println("ℹ️  Will use system environment variables or default values")
	}

	// Load configuration; everything downstream receives it explicitly
	cfg := config.Load()

	// Initialize logger
	logger.Init(cfg.Logger.Level, cfg.N8N.Debug)
	defer logger.Sync()

	logger.Info("🚀 Starting n8n2api server")
	logger.Info("📋 Configuration loaded:")
	logger.Info("   ├─ Server Port: %s", cfg.Server.Port)
	logger.Info("   ├─ Log Level: %s", cfg.Logger.Level)
	logger.Info("   ├─ Model: %s", cfg.N8N.ModelName)
	logger.Info("   ├─ Webhook Configured: %v", cfg.Configured())
	logger.Info("   ├─ Timeout: %v", cfg.N8N.Timeout)
	logger.Info("   ├─ Max Retries: %d", cfg.N8N.MaxRetries)
	logger.Info("   ├─ TLS Verify: %v", cfg.N8N.TLSVerify)
	logger.Info("   ├─ Auth Enabled: %v", cfg.Auth.Enabled)
	logger.Info("   └─ Rate Limit Enabled: %v", cfg.RateLimit.Enabled)
	// 注意:auth token 任何情况下不写入日志

	if !cfg.Configured() {
		logger.Warn("⚠️  N8N_WEBHOOK_URL 未配置,chat completions 将返回配置错误")
	}
	if !cfg.N8N.TLSVerify {
		logger.Warn("⚠️  上游 TLS 证书校验已关闭,仅适用于可信内网部署")
	}

	// Initialize webhook relay service
	webhookService := service.NewWebhookService(cfg.N8N)

	// Optional request log store
	var requestLog *store.RequestLog
	if cfg.Store.Path != "" {
		var err error
		requestLog, err = store.Open(cfg.Store.Path)
		if err != nil {
			logger.Error("❌ Failed to open request log | error=%v", err)
			os.Exit(1)
		}
		defer requestLog.Close()
		logger.Info("💾 Request log enabled at %s", cfg.Store.Path)
	}

	// Optional Prometheus metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Initialize API Handler
	apiHandler := handler.NewAPIHandler(webhookService, cfg, m, requestLog)

	// Middleware
	identity := middleware.NewIdentity()
	authMiddleware := middleware.NewAPIKeyAuth(cfg.Auth.APIKeys, cfg.Auth.Enabled)
	rateLimiter := middleware.NewRateLimiter(
		cfg.RateLimit.RequestsPerSec,
		cfg.RateLimit.Burst,
		cfg.RateLimit.Enabled,
		cfg.RateLimit.CleanupInterval,
	)

	// Setup HTTP router
	mux := http.NewServeMux()

	// Liveness endpoint (no identity required)
	mux.HandleFunc("/health", apiHandler.HandleHealth)

	// OpenAI-compatible endpoints
	mux.HandleFunc("/v1/models", apiHandler.HandleModels)
	mux.HandleFunc("/v1/chat/completions", apiHandler.HandleChatCompletions)
	mux.HandleFunc("/v1/embeddings", apiHandler.HandleEmbeddings)
	mux.HandleFunc("/models", apiHandler.HandleModels)
	mux.HandleFunc("/chat/completions", apiHandler.HandleChatCompletions)
	mux.HandleFunc("/embeddings", apiHandler.HandleEmbeddings)

	// Integration status
	mux.HandleFunc("/{$}", apiHandler.HandleStatus)

	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}

	// Apply middleware chain: CORS -> RateLimit -> Auth -> Identity -> Router
	handlerChain := middleware.CORS(rateLimiter.Middleware(authMiddleware.Middleware(identity.Middleware(mux))))

	// WriteTimeout must outlast the upstream deadline or long streaming
	// relays get cut off mid-stream
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handlerChain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.N8N.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine for graceful shutdown
	go func() {
		logger.Info("🌐 Server listening on %s", server.Addr)
		logger.Info("📡 API Endpoints:")
		logger.Info("   ├─ GET  /")
		logger.Info("   ├─ GET  /health")
		logger.Info("   ├─ GET  /v1/models")
		logger.Info("   ├─ POST /v1/chat/completions")
		logger.Info("   └─ POST /v1/embeddings")
		logger.Info("✨ Server is ready to accept requests!")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("❌ Server failed | error=%v", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutdown signal received, gracefully shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("⚠️  Server forced to shutdown: %v", err)
	}

	logger.Info("👋 Server exited gracefully")
}
