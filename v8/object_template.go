package v8

import (
	"github.com/dop251/goja"

	"github.com/LiuQiulin/LiquidCore/jsengine"
)

// ObjectTemplate 描述对象的形状。作为函数模板的实例模板时，constructor 指回该函数模板。
type ObjectTemplate struct {
	template

	constructor ref
}

// NewObjectTemplate 创建不属于任何函数模板的对象模板。
func NewObjectTemplate(iso *Isolate) *ObjectTemplate {
	ot := &ObjectTemplate{}
	ot.init(iso, nil)
	ot.self = iso.arena.add(arenaEntry{kind: kindObject, obj: ot})
	return ot
}

// setConstructor 只生效一次，之后的赋值被忽略。
func (ot *ObjectTemplate) setConstructor(ft *FunctionTemplate) {
	if ot.constructor.valid() {
		ot.iso.logger.Warnf("实例模板的构造模板已设置，忽略重新赋值")
		return
	}
	ot.constructor = ft.self
}

// Constructor 返回拥有该实例模板的函数模板。
func (ot *ObjectTemplate) Constructor() *FunctionTemplate {
	if !ot.constructor.valid() {
		return nil
	}
	ft, err := ot.iso.arena.function(ot.constructor)
	if err != nil {
		return nil
	}
	return ft
}

// NewInstance 在上下文中创建一个对象并应用形状。
// 若该模板是某函数模板的实例模板，对象的原型为该函数的 prototype 且带有各级祖先的实例形状，
// 但不会调用构造回调。
func (ot *ObjectTemplate) NewInstance(c *Context) (*goja.Object, error) {
	if err := c.usable(jsengine.ErrInstantiate); err != nil {
		return nil, err
	}
	ctor := ot.Constructor()
	if ctor == nil {
		return ot.newPlain(c, "")
	}
	fn, err := ctor.GetFunction(c)
	if err != nil {
		return nil, err
	}
	obj := c.realm.NewHostObject(ctor.name)
	if proto, ok := fn.Get("prototype").(*goja.Object); ok {
		if err := c.realm.SetPrototype(obj, proto); err != nil {
			return nil, instantiateError("设置实例原型失败", err)
		}
	}
	if err := ctor.applyInstanceShape(c, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func (ot *ObjectTemplate) newPlain(c *Context, className string) (*goja.Object, error) {
	obj := c.realm.NewHostObject(className)
	if err := ot.applyShape(c, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func instantiateError(msg string, cause error) error {
	return &jsengine.EngineError{
		Kind:    jsengine.ErrInstantiate,
		Message: msg,
		Cause:   cause,
	}
}
