package logger

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.SugaredLogger]

// M 返回进程级主日志器，未初始化时返回 Nop 日志器。
func M() *zap.SugaredLogger {
	if l := current.Load(); l != nil {
		return l
	}
	return zap.NewNop().Sugar()
}

// Set 替换主日志器。
func Set(l *zap.SugaredLogger) {
	current.Store(l)
}

// Init 按日志级别构建主日志器。dev 为 true 时使用控制台友好的编码。
func Init(level string, dev bool) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	s := l.Sugar()
	Set(s)
	return s, nil
}
