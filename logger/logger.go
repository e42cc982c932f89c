package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar *zap.SugaredLogger

// Init 初始化日志管理器
//
// debug=true 时强制 debug 级别,否则按 levelStr 解析
func Init(levelStr string, debug bool) {
	level := parseLogLevel(levelStr)
	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stdout"}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// 配置为内置值,Build 只在编码器名非法时失败
		l = zap.NewNop()
	}
	sugar = l.Sugar()

	Info("📋 日志管理器已初始化")
	Info("  └─ 日志级别: %s", level.String())
}

// InitWithCore 用外部提供的 core 初始化,测试用它把日志导入 observer
func InitWithCore(core zapcore.Core) {
	sugar = zap.New(core).Sugar()
}

// parseLogLevel 解析日志级别字符串
func parseLogLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Debug 输出 DEBUG 级别日志
func Debug(format string, v ...interface{}) {
	if sugar == nil {
		return
	}
	sugar.Debugf(format, v...)
}

// Info 输出 INFO 级别日志
func Info(format string, v ...interface{}) {
	if sugar == nil {
		return
	}
	sugar.Infof(format, v...)
}

// Warn 输出 WARN 级别日志
func Warn(format string, v ...interface{}) {
	if sugar == nil {
		return
	}
	sugar.Warnf(format, v...)
}

// Error 输出 ERROR 级别日志
func Error(format string, v ...interface{}) {
	if sugar == nil {
		return
	}
	sugar.Errorf(format, v...)
}

// Fatal 输出 FATAL 日志并退出
func Fatal(format string, v ...interface{}) {
	if sugar == nil {
		return
	}
	sugar.Fatalf(format, v...)
}

// Sync 刷新缓冲的日志
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
