package v8

import (
	"github.com/dop251/goja"

	"github.com/LiuQiulin/LiquidCore/jsengine"
)

// 形参全部为固定的位置记号：$0 普通调用目标，$1 构造目标，$2 声明长度，$3 函数名。
// 类名只以值的形式传入，不拼接进源码。
var trampolineParams = []string{"$0", "$1", "$2", "$3"}

const trampolineBody = `const f = function () {
	if (new.target) {
		return $1.call(this, new.target === f, ...arguments);
	}
	return $0.call(this, ...arguments);
};
Object.defineProperty(f, "name", {value: $3});
if ($2) {
	Object.defineProperty(f, "length", {value: $2});
}
return f;`

// dispatchTarget 是原生调度目标携带的回指：所属模板、隔离区与上下文。
type dispatchTarget struct {
	tmpl *FunctionTemplate
	iso  *Isolate
	ctx  *Context
}

func (c *Context) trampoline() (goja.Callable, error) {
	if c.trampolineFactory != nil {
		return c.trampolineFactory, nil
	}
	fn, err := c.realm.MakeFunction("proxy_function", trampolineParams, trampolineBody)
	if err != nil {
		return nil, err
	}
	c.trampolineFactory = fn
	return fn, nil
}

// buildTrampoline 合成一个函数：普通调用转到 call 目标，new 调用转到 construct 目标。
func (c *Context) buildTrampoline(ft *FunctionTemplate) (*goja.Object, error) {
	factory, err := c.trampoline()
	if err != nil {
		return nil, c.internalError("合成调度函数失败", err)
	}
	target := &dispatchTarget{tmpl: ft, iso: c.iso, ctx: c}
	name := ft.name
	if name == "" {
		name = "Function"
	}
	rt := c.Runtime()
	v, err := factory(goja.Undefined(),
		rt.ToValue(target.call),
		rt.ToValue(target.construct),
		rt.ToValue(ft.length),
		rt.ToValue(name),
	)
	if err != nil {
		return nil, c.internalError("调用调度函数工厂失败", err)
	}
	fn, ok := v.(*goja.Object)
	if !ok {
		return nil, c.internalError("调度函数工厂未返回函数", nil)
	}
	return fn, nil
}

// internalError 对应内部生成脚本的失败，正常情况下不可能发生。
func (c *Context) internalError(msg string, cause error) error {
	c.iso.logger.Errorf("%s: %v", msg, cause)
	return &jsengine.EngineError{
		Kind:    jsengine.ErrInternal,
		Message: msg,
		Cause:   cause,
	}
}
