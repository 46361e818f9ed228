package gojajs

import (
	"context"
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
	"github.com/pkg/errors"

	"github.com/LiuQiulin/LiquidCore/jsengine"
)

// Adapter 是基于 goja 的引擎实现，一个 Adapter 对应一个全局环境。
type Adapter struct {
	mu sync.RWMutex

	cfg jsengine.Config
	lc  *jsengine.Lifecycle

	apis     []jsengine.HostAPI
	rt       *goja.Runtime
	registry *require.Registry
	realm    *Realm
	printer  *Printer
}

// newRuntime 用于创建 goja 运行时，测试中可替换。
var newRuntime = goja.New

func init() {
	jsengine.Register(jsengine.EngineGoja, func() jsengine.Engine {
		return NewAdapter()
	})
}

// NewAdapter 创建 goja 适配器实例，Init 时自行创建运行时。
func NewAdapter() *Adapter {
	return &Adapter{
		lc:   jsengine.NewLifecycle(),
		apis: make([]jsengine.HostAPI, 0, 8),
	}
}

// NewAdapterWithRuntime 绑定外部持有的运行时（例如事件循环内的运行时）。
func NewAdapterWithRuntime(rt *goja.Runtime) *Adapter {
	a := NewAdapter()
	a.rt = rt
	return a
}

// Name 返回引擎名 goja。
func (a *Adapter) Name() jsengine.EngineName {
	return jsengine.EngineGoja
}

// Init 创建（或接管）运行时，启用模块注册表与 console，并注入已登记的宿主API。
func (a *Adapter) Init(_ context.Context, cfg jsengine.Config) error {
	if !a.lc.CompareAndSwap(jsengine.StateNew, jsengine.StateIniting) {
		return &jsengine.EngineError{
			Kind:    jsengine.ErrInit,
			Message: "引擎初始化状态非法",
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg

	rt := a.rt
	if rt == nil {
		rt = newRuntime()
	}
	if rt == nil {
		a.lc.Store(jsengine.StateClosed)
		return &jsengine.EngineError{
			Kind:    jsengine.ErrInit,
			Message: "创建 goja Runtime 失败",
		}
	}

	var opts []require.Option
	if cfg.ModuleDir != "" {
		opts = append(opts, require.WithGlobalFolders(cfg.ModuleDir))
	}
	reg := require.NewRegistry(opts...)
	a.printer = NewPrinter(cfg.Logger)
	reg.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(a.printer))
	reg.Enable(rt)
	if cfg.Console {
		console.Enable(rt)
	}

	for _, api := range a.apis {
		if err := rt.Set(api.Name, api.Handler); err != nil {
			a.lc.Store(jsengine.StateClosed)
			return &jsengine.EngineError{
				Kind:    jsengine.ErrInit,
				Message: "goja 注入宿主API失败: " + api.Name,
				Cause:   err,
			}
		}
	}

	a.rt = rt
	a.registry = reg
	a.realm = NewRealm(rt)
	a.lc.Store(jsengine.StateReady)
	return nil
}

// Dispose 释放运行时引用，重复调用无副作用。
func (a *Adapter) Dispose() error {
	ok, err := a.lc.BeginDispose("引擎")
	if !ok {
		return err
	}
	a.mu.Lock()
	a.rt = nil
	a.realm = nil
	a.registry = nil
	a.mu.Unlock()
	a.lc.Store(jsengine.StateClosed)
	return nil
}

// Realm 返回模板层使用的原语集合，未初始化时为 nil。
func (a *Adapter) Realm() *Realm {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.realm
}

// Printer 返回 console 输出转发器。
func (a *Adapter) Printer() *Printer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.printer
}

func (a *Adapter) runtime(kind jsengine.ErrorKind) (*goja.Runtime, error) {
	if err := a.lc.RequireReady(kind, "引擎"); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.rt == nil {
		return nil, &jsengine.EngineError{
			Kind:    jsengine.ErrInternal,
			Message: "goja 运行时不可用",
		}
	}
	return a.rt, nil
}

// Eval 执行脚本并丢弃结果。
func (a *Adapter) Eval(code string) error {
	_, err := a.evalValue(code)
	return err
}

// EvalWithResult 执行脚本并返回导出后的表达式结果。
func (a *Adapter) EvalWithResult(code string) (any, error) {
	v, err := a.evalValue(code)
	if err != nil {
		return nil, err
	}
	return v.Export(), nil
}

func (a *Adapter) evalValue(code string) (goja.Value, error) {
	rt, err := a.runtime(jsengine.ErrEval)
	if err != nil {
		return nil, err
	}
	v, err := rt.RunString(code)
	if err != nil {
		return nil, evalError(err)
	}
	return v, nil
}

func evalError(err error) *jsengine.EngineError {
	ee := &jsengine.EngineError{
		Kind:    jsengine.ErrEval,
		Message: "goja Eval 执行失败: " + err.Error(),
		Cause:   err,
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		ee.Stack = ex.String()
	}
	return ee
}

// Require 通过脚本侧 require 加载模块。
func (a *Adapter) Require(moduleID string) error {
	rt, err := a.runtime(jsengine.ErrModule)
	if err != nil {
		return err
	}
	fn, ok := goja.AssertFunction(rt.Get("require"))
	if !ok {
		return &jsengine.EngineError{
			Kind:    jsengine.ErrModule,
			Message: "require 未启用",
		}
	}
	if _, err := fn(goja.Undefined(), rt.ToValue(moduleID)); err != nil {
		return &jsengine.EngineError{
			Kind:    jsengine.ErrModule,
			Message: "goja Require 执行失败: " + err.Error(),
			Cause:   err,
		}
	}
	return nil
}

// RegisterHostAPI 注册全局对象。初始化前注册的项在 Init 时统一注入。
func (a *Adapter) RegisterHostAPI(api jsengine.HostAPI) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.apis = append(a.apis, api)
	if a.lc.State() == jsengine.StateReady && a.rt != nil {
		if err := a.rt.Set(api.Name, api.Handler); err != nil {
			return &jsengine.EngineError{
				Kind:    jsengine.ErrRuntime,
				Message: "goja 动态注册宿主API失败: " + api.Name,
				Cause:   err,
			}
		}
	}
	return nil
}
