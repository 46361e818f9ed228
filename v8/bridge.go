package v8

import (
	"github.com/dop251/goja"

	"github.com/LiuQiulin/LiquidCore/jsengine"
)

// call 是普通调用的原生目标。回调未写入返回值时结果为 undefined。
func (d *dispatchTarget) call(call goja.FunctionCall) goja.Value {
	c := d.ctx
	d.enter()
	info := newCallbackInfo(c, valueOf(call.This), call.Arguments, d.tmpl.data, valueOf(nil), false)
	ret, exc := d.invoke(info)
	if exc != nil {
		c.realm.Throw(exc)
	}
	return ret.Native()
}

// construct 是 new 调用的原生目标。第一个参数由调度函数传入：
// true 表示直接 new 本函数，需要新建宿主对象作为接收者；
// false 表示经由子类 super() 进入，沿用引擎分配的 this。
func (d *dispatchTarget) construct(call goja.FunctionCall) goja.Value {
	c := d.ctx
	d.enter()
	if d.tmpl.behavior == ConstructorThrow {
		c.realm.Throw(c.Runtime().NewTypeError("%s is not a constructor", d.displayName()))
	}
	var args []goja.Value
	if len(call.Arguments) > 1 {
		args = call.Arguments[1:]
	}

	receiver, err := d.receiver(call.Argument(0).ToBoolean(), call.This)
	if err != nil {
		c.realm.Throw(c.realm.ExceptionValue(err))
	}
	if err := d.tmpl.applyInstanceShape(c, receiver); err != nil {
		c.realm.Throw(c.realm.ExceptionValue(err))
	}

	info := newCallbackInfo(c, valueOf(receiver), args, d.tmpl.data, valueOf(receiver), true)
	ret, exc := d.invoke(info)
	if exc != nil {
		c.realm.Throw(exc)
	}
	// 只有对象返回值会替换接收者，原始值与未写入都返回接收者。
	if obj, ok := ret.Object(); ok {
		return obj
	}
	return receiver
}

func (d *dispatchTarget) enter() {
	if err := d.ctx.usable(jsengine.ErrCallback); err != nil {
		d.ctx.realm.Throw(d.ctx.realm.ExceptionValue(err))
	}
}

func (d *dispatchTarget) displayName() string {
	if d.tmpl.name == "" {
		return "Function"
	}
	return d.tmpl.name
}

func (d *dispatchTarget) receiver(fresh bool, this goja.Value) (*goja.Object, error) {
	c := d.ctx
	if !fresh {
		return this.ToObject(c.Runtime()), nil
	}
	fn, err := d.tmpl.GetFunction(c)
	if err != nil {
		return nil, err
	}
	obj := c.realm.NewHostObject(d.tmpl.name)
	if proto, ok := fn.Get("prototype").(*goja.Object); ok {
		if err := c.realm.SetPrototype(obj, proto); err != nil {
			return nil, instantiateError("设置实例原型失败", err)
		}
	}
	if err := c.realm.DefineProperty(obj, "constructor", fn, jsengine.AttrDontEnum|jsengine.AttrReadOnly); err != nil {
		return nil, instantiateError("设置 constructor 失败", err)
	}
	return obj, nil
}

// invoke 执行回调并决出应抛出的异常，优先级为：原生抛出、返回 error、侧通道登记。
// 进入前保存并清空登记槽位，返回前恢复，使嵌套调用互不干扰。
func (d *dispatchTarget) invoke(info *FunctionCallbackInfo) (Value, goja.Value) {
	iso := d.iso
	saved := iso.scheduled
	iso.scheduled = theHole

	thrown, err := d.runCallback(info)

	scheduled := iso.scheduled
	iso.scheduled = saved

	switch {
	case thrown != nil:
		return theHole, thrown
	case err != nil:
		iso.logger.Debugf("回调 %q 返回错误: %v", d.displayName(), err)
		return theHole, d.ctx.realm.ExceptionValue(err)
	case !scheduled.IsHole():
		return theHole, scheduled.Native()
	}
	return info.implicit.returnValue, nil
}

// runCallback 调用宿主回调，把 goja 值形式的 panic 转换为抛出值，其余 panic 原样传播。
func (d *dispatchTarget) runCallback(info *FunctionCallbackInfo) (thrown goja.Value, err error) {
	cb := d.tmpl.callback
	if cb == nil {
		return nil, nil
	}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch v := r.(type) {
		case *goja.Exception:
			thrown = v.Value()
		case goja.Value:
			thrown = v
		default:
			panic(r)
		}
	}()
	return nil, cb(info)
}
