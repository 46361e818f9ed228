package gojajs

import (
	"sync"

	"go.uber.org/zap"
)

// Printer 将脚本侧 console 输出转发到 zap，并可按需录制输出。
type Printer struct {
	logger *zap.SugaredLogger

	mu       sync.Mutex
	isRecord bool
	recorder []string
}

// NewPrinter 创建转发器，logger 为 nil 时丢弃输出。
func NewPrinter(logger *zap.SugaredLogger) *Printer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Printer{logger: logger}
}

func (p *Printer) doRecord(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isRecord {
		p.recorder = append(p.recorder, s)
	}
}

// RecordStart 开始录制，清空之前的记录。
func (p *Printer) RecordStart() {
	p.mu.Lock()
	p.recorder = []string{}
	p.isRecord = true
	p.mu.Unlock()
}

// RecordEnd 停止录制并返回录制到的输出。
func (p *Printer) RecordEnd() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := p.recorder
	p.recorder = []string{}
	p.isRecord = false
	return r
}

// Log 对应 console.log。
func (p *Printer) Log(s string) { p.doRecord(s); p.logger.Info("[JS] " + s) }

func (p *Printer) Warn(s string) { p.doRecord(s); p.logger.Warn("[JS] " + s) }

// Error 表示脚本业务侧的错误输出（console.error），不打印 Go 运行栈。
func (p *Printer) Error(s string) { p.doRecord(s); p.logger.Warn("[JS] " + s) }
