package gojajs

import (
	"regexp"
	"strings"

	"github.com/dop251/goja"
	"github.com/pkg/errors"

	"github.com/LiuQiulin/LiquidCore/jsengine"
)

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Realm 封装单个 goja 全局环境上暴露给模板层的原语：
// 宿主对象创建、带属性位的读写、原型读写、由参数与函数体构造函数、脚本求值，
// 以及原生值与异常之间的转换。
type Realm struct {
	rt *goja.Runtime
}

// NewRealm 包装一个已创建的运行时。
func NewRealm(rt *goja.Runtime) *Realm {
	return &Realm{rt: rt}
}

// Runtime 返回底层运行时。
func (r *Realm) Runtime() *goja.Runtime {
	return r.rt
}

// NewHostObject 创建带类名标记的普通对象。类名通过不可枚举的 Symbol.toStringTag 体现，
// 空类名时不做标记。
func (r *Realm) NewHostObject(className string) *goja.Object {
	obj := r.rt.NewObject()
	if className != "" {
		// 新建对象可扩展且尚无该属性，定义不会失败。
		_ = obj.DefineDataPropertySymbol(goja.SymToStringTag, r.rt.ToValue(className),
			goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	}
	return obj
}

// Get 读取属性，缺失时返回 undefined 而不是 nil。
func (r *Realm) Get(obj *goja.Object, name string) goja.Value {
	v := obj.Get(name)
	if v == nil {
		return goja.Undefined()
	}
	return v
}

// DefineProperty 按属性位定义数据属性，value 为 nil 时视为 undefined。
func (r *Realm) DefineProperty(obj *goja.Object, name string, value goja.Value, attr jsengine.PropertyAttribute) error {
	if value == nil {
		value = goja.Undefined()
	}
	err := obj.DefineDataProperty(name, value,
		goja.ToFlag(attr.Writable()), goja.ToFlag(attr.Configurable()), goja.ToFlag(attr.Enumerable()))
	if err != nil {
		return errors.Wrapf(err, "定义属性 %s 失败", name)
	}
	return nil
}

// DefineAccessor 定义访问器属性，getter 或 setter 为 nil 表示缺省。
func (r *Realm) DefineAccessor(obj *goja.Object, name string, getter, setter goja.Value, attr jsengine.PropertyAttribute) error {
	err := obj.DefineAccessorProperty(name, getter, setter,
		goja.ToFlag(attr.Configurable()), goja.ToFlag(attr.Enumerable()))
	if err != nil {
		return errors.Wrapf(err, "定义访问器 %s 失败", name)
	}
	return nil
}

func (r *Realm) Prototype(obj *goja.Object) *goja.Object {
	return obj.Prototype()
}

// SetPrototype 设置对象的 [[Prototype]]。
func (r *Realm) SetPrototype(obj *goja.Object, proto *goja.Object) error {
	if err := obj.SetPrototype(proto); err != nil {
		return errors.Wrap(err, "设置原型失败")
	}
	return nil
}

// MakeFunction 以给定形参与函数体构造函数。name 与 params 必须是合法标识符，
// 它们由调用方固定提供，不接受用户输入。
func (r *Realm) MakeFunction(name string, params []string, body string) (goja.Callable, error) {
	if !identRe.MatchString(name) {
		return nil, errors.Errorf("非法函数名: %q", name)
	}
	for _, p := range params {
		if !identRe.MatchString(p) {
			return nil, errors.Errorf("非法形参名: %q", p)
		}
	}
	src := "(function " + name + "(" + strings.Join(params, ", ") + ") {\n" + body + "\n})"
	v, err := r.rt.RunScript(name, src)
	if err != nil {
		return nil, errors.Wrap(err, "构造函数失败")
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, errors.Errorf("脚本结果不是函数: %s", v)
	}
	return fn, nil
}

// Eval 执行脚本，错误带调用栈。
func (r *Realm) Eval(src string) (goja.Value, error) {
	v, err := r.rt.RunString(src)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return v, nil
}

func (r *Realm) ToValue(v any) goja.Value {
	return r.rt.ToValue(v)
}

// ExceptionValue 把 Go 错误转换为可抛出的脚本值。
// 脚本异常保留原始抛出值，其余错误包装为 GoError。
func (r *Realm) ExceptionValue(err error) goja.Value {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return ex.Value()
	}
	return r.rt.NewGoError(err)
}

// Throw 在原生函数内部抛出脚本异常，不会返回。
func (r *Realm) Throw(v goja.Value) {
	panic(v)
}
