package v8

import (
	"github.com/dop251/goja"
	"github.com/pkg/errors"

	"github.com/LiuQiulin/LiquidCore/jsengine"
	"github.com/LiuQiulin/LiquidCore/jsengine/gojajs"
)

type realmProvider interface {
	Realm() *gojajs.Realm
}

// Context 是一个独立的全局环境。模板在每个上下文中各自实体化。
type Context struct {
	id     uint64
	iso    *Isolate
	lc     *jsengine.Lifecycle
	engine jsengine.Engine
	realm  *gojajs.Realm

	trampolineFactory goja.Callable
	// materializing 记录正在实体化的模板，用于发现自引用。
	materializing map[*FunctionTemplate]bool
}

// ID 是隔离区内递增的上下文编号。
func (c *Context) ID() uint64 { return c.id }

func (c *Context) Isolate() *Isolate { return c.iso }

// Engine 返回承载该上下文的引擎。
func (c *Context) Engine() jsengine.Engine { return c.engine }

func (c *Context) Realm() *gojajs.Realm { return c.realm }

func (c *Context) Runtime() *goja.Runtime { return c.realm.Runtime() }

// Global 返回全局对象。
func (c *Context) Global() *goja.Object { return c.realm.Runtime().GlobalObject() }

func (c *Context) usable(kind jsengine.ErrorKind) error {
	return c.lc.RequireReady(kind, "执行上下文")
}

// RunScript 在上下文中执行脚本并返回结果值。
func (c *Context) RunScript(src string) (goja.Value, error) {
	if err := c.usable(jsengine.ErrEval); err != nil {
		return nil, err
	}
	v, err := c.realm.Eval(src)
	if err != nil {
		ee := &jsengine.EngineError{
			Kind:    jsengine.ErrEval,
			Message: errors.Cause(err).Error(),
			Cause:   err,
		}
		var ex *goja.Exception
		if errors.As(err, &ex) {
			ee.Stack = ex.String()
		}
		return nil, ee
	}
	return v, nil
}

// Install 实体化函数模板并以 name 暴露为全局变量。
func (c *Context) Install(name string, ft *FunctionTemplate) error {
	fn, err := ft.GetFunction(c)
	if err != nil {
		return err
	}
	return c.engine.RegisterHostAPI(jsengine.HostAPI{Name: name, Handler: fn})
}

// Dispose 释放上下文，并使所有模板中该上下文的缓存项失效。
func (c *Context) Dispose() error {
	ok, err := c.lc.BeginDispose("执行上下文")
	if !ok {
		return err
	}
	c.iso.forgetContext(c)
	c.trampolineFactory = nil
	err = c.engine.Dispose()
	c.lc.Store(jsengine.StateClosed)
	c.iso.logger.Debugf("释放执行上下文 #%d", c.id)
	return err
}
