package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger 构建全局日志器，无法识别的级别按 info 处理
func InitLogger(logLevel string) {
	cfg := zap.NewDevelopmentConfig()

	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(logLevel)))
	if err != nil {
		level = zapcore.InfoLevel
	}
	cfg.Level.SetLevel(level)

	// 开发配置默认带堆栈，警告级别的堆栈在房间日志里太吵
	cfg.DisableStacktrace = true

	lgr, err := cfg.Build()
	if err != nil {
		panic(fmt.Errorf("构建日志器失败: %w", err))
	}

	zap.ReplaceGlobals(lgr)
}

// Sync 在进程退出前刷新缓冲的日志
func Sync() {
	_ = zap.L().Sync()
}
