package v8

import (
	"context"

	"github.com/dop251/goja"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/LiuQiulin/LiquidCore/jsengine"
	"github.com/LiuQiulin/LiquidCore/logger"
)

// IsolateConfig 配置隔离区。Engine 用于创建其下的每个执行上下文。
type IsolateConfig struct {
	Engine jsengine.Config
	Logger *zap.SugaredLogger
}

// Isolate 持有模板表、GC 根表与待抛出异常槽位。
// 同一时刻只允许一个 goroutine 进入，调用方负责串行化。
type Isolate struct {
	cfg    IsolateConfig
	lc     *jsengine.Lifecycle
	logger *zap.SugaredLogger

	arena *arena
	roots rootTable

	// scheduled 是回调通过侧通道登记的异常，hole 表示没有。
	scheduled Value

	contexts      []*Context
	nextContextID uint64
}

// NewIsolate 创建隔离区，未指定日志器时使用进程主日志器。
func NewIsolate(cfg IsolateConfig) *Isolate {
	if cfg.Logger == nil {
		cfg.Logger = logger.M()
	}
	if cfg.Engine.Logger == nil {
		cfg.Engine.Logger = cfg.Logger
	}
	iso := &Isolate{
		cfg:       cfg,
		lc:        jsengine.NewLifecycle(),
		logger:    cfg.Logger,
		arena:     newArena(),
		scheduled: theHole,
	}
	iso.lc.Store(jsengine.StateReady)
	return iso
}

// Logger 返回隔离区日志器。
func (iso *Isolate) Logger() *zap.SugaredLogger {
	return iso.logger
}

// Dispose 释放全部上下文并整体回收模板与根，重复调用无副作用。
func (iso *Isolate) Dispose() error {
	ok, err := iso.lc.BeginDispose("隔离区")
	if !ok {
		return err
	}
	var firstErr error
	for _, c := range append([]*Context(nil), iso.contexts...) {
		if err := c.Dispose(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	iso.logger.Debugf("隔离区释放: 模板=%d 根=%d", iso.arena.len(), iso.roots.len())
	iso.arena.reset()
	iso.roots.reset()
	iso.contexts = nil
	iso.scheduled = theHole
	iso.lc.Store(jsengine.StateClosed)
	return firstErr
}

// ThrowException 通过侧通道登记异常，由外层桥接在回调返回后抛出。
func (iso *Isolate) ThrowException(v goja.Value) {
	iso.scheduled = valueOf(v)
}

// ScheduledException 返回当前登记的异常。
func (iso *Isolate) ScheduledException() (goja.Value, bool) {
	if iso.scheduled.IsHole() {
		return nil, false
	}
	return iso.scheduled.Native(), true
}

// Contexts 返回仍然存活的上下文。
func (iso *Isolate) Contexts() []*Context {
	return append([]*Context(nil), iso.contexts...)
}

// NewContext 通过引擎注册表创建新的执行上下文。
func (iso *Isolate) NewContext(ctx context.Context) (*Context, error) {
	if err := iso.lc.RequireReady(jsengine.ErrInit, "隔离区"); err != nil {
		return nil, err
	}
	engine, err := jsengine.New(iso.cfg.Engine)
	if err != nil {
		return nil, err
	}
	return iso.AttachContext(ctx, engine)
}

// AttachContext 以外部创建、尚未初始化的引擎作为执行上下文。
// 引擎必须能提供 goja 原语集合。
func (iso *Isolate) AttachContext(ctx context.Context, engine jsengine.Engine) (*Context, error) {
	if err := iso.lc.RequireReady(jsengine.ErrInit, "隔离区"); err != nil {
		return nil, err
	}
	if err := engine.Init(ctx, iso.cfg.Engine); err != nil {
		return nil, err
	}
	rp, ok := engine.(realmProvider)
	if !ok || rp.Realm() == nil {
		_ = engine.Dispose()
		return nil, &jsengine.EngineError{
			Kind:    jsengine.ErrInit,
			Message: "引擎未提供 goja 原语: " + string(engine.Name()),
		}
	}
	iso.nextContextID++
	c := &Context{
		id:            iso.nextContextID,
		iso:           iso,
		lc:            jsengine.NewLifecycle(),
		engine:        engine,
		realm:         rp.Realm(),
		materializing: map[*FunctionTemplate]bool{},
	}
	c.lc.Store(jsengine.StateReady)
	iso.contexts = append(iso.contexts, c)
	iso.logger.Debugf("创建执行上下文 #%d (%s)", c.id, engine.Name())
	return c, nil
}

// forgetContext 在上下文释放时移除所有模板中对应的缓存项及其根。
func (iso *Isolate) forgetContext(c *Context) {
	for _, ft := range iso.arena.functions() {
		ft.forget(c)
	}
	iso.contexts = lo.Without(iso.contexts, c)
}

func (iso *Isolate) protect(v goja.Value) rootID {
	return iso.roots.protect(v)
}

func (iso *Isolate) unprotect(id rootID) {
	iso.roots.unprotect(id)
}
