package v8

import (
	"github.com/dop251/goja"
	"github.com/pkg/errors"

	"github.com/LiuQiulin/LiquidCore/jsengine"
)

// templateProperty 是模板形状中的一项。数据属性的 value 只能是 Go 原始值、
// goja 原始值或另一个模板；访问器属性由 getter/setter 函数模板描述。
type templateProperty struct {
	name     string
	value    any
	accessor bool
	getter   *FunctionTemplate
	setter   *FunctionTemplate
	attr     jsengine.PropertyAttribute
}

// template 是函数模板与对象模板共享的部分。
type template struct {
	iso  *Isolate
	self ref

	name     string
	data     Value
	dataRoot rootID
	callback FunctionCallback
	props    []templateProperty
}

func (t *template) init(iso *Isolate, data goja.Value) {
	t.iso = iso
	t.data = valueOf(data)
	t.dataRoot = iso.protect(t.data.Native())
}

// setData 替换关联数据，根登记随之迁移。
func (t *template) setData(data goja.Value) {
	t.iso.unprotect(t.dataRoot)
	t.data = valueOf(data)
	t.dataRoot = t.iso.protect(t.data.Native())
}

// Data 返回关联数据。
func (t *template) Data() goja.Value {
	return t.data.Native()
}

// Set 向模板形状追加数据属性。value 可以是 Go 原始值、goja 原始值、
// *FunctionTemplate 或 *ObjectTemplate；对象值属于具体运行时，不允许放入模板。
func (t *template) Set(name string, value any, attr jsengine.PropertyAttribute) error {
	switch v := value.(type) {
	case *goja.Object:
		return &jsengine.EngineError{
			Kind:    jsengine.ErrUnsupported,
			Message: "模板属性值不能是具体运行时中的对象: " + name,
		}
	case *FunctionTemplate:
		if v == nil || v.iso != t.iso {
			return errForeignTemplate(name)
		}
	case *ObjectTemplate:
		if v == nil || v.iso != t.iso {
			return errForeignTemplate(name)
		}
	}
	t.props = append(t.props, templateProperty{name: name, value: value, attr: attr})
	return nil
}

// SetAccessorProperty 向模板形状追加访问器属性，getter 与 setter 可以为 nil。
func (t *template) SetAccessorProperty(name string, getter, setter *FunctionTemplate, attr jsengine.PropertyAttribute) error {
	for _, ft := range []*FunctionTemplate{getter, setter} {
		if ft != nil && ft.iso != t.iso {
			return errForeignTemplate(name)
		}
	}
	t.props = append(t.props, templateProperty{
		name:     name,
		accessor: true,
		getter:   getter,
		setter:   setter,
		attr:     attr,
	})
	return nil
}

func errForeignTemplate(name string) error {
	return &jsengine.EngineError{
		Kind:    jsengine.ErrUnsupported,
		Message: "模板属性值必须属于同一隔离区: " + name,
	}
}

// validateShape 检查形状中引用的模板仍然存活。
func (t *template) validateShape() error {
	for _, p := range t.props {
		for _, ref := range p.templateRefs() {
			if !t.iso.arena.alive(ref) {
				return &jsengine.EngineError{
					Kind:    jsengine.ErrInstantiate,
					Message: "模板形状引用了已失效的模板: " + p.name,
				}
			}
		}
	}
	return nil
}

func (p templateProperty) templateRefs() []ref {
	var refs []ref
	switch v := p.value.(type) {
	case *FunctionTemplate:
		refs = append(refs, v.self)
	case *ObjectTemplate:
		refs = append(refs, v.self)
	}
	if p.getter != nil {
		refs = append(refs, p.getter.self)
	}
	if p.setter != nil {
		refs = append(refs, p.setter.self)
	}
	return refs
}

// applyShape 把形状逐项定义到 obj 上，任何一项失败立即返回。
func (t *template) applyShape(c *Context, obj *goja.Object) error {
	for _, p := range t.props {
		if err := p.apply(c, obj); err != nil {
			return &jsengine.EngineError{
				Kind:    jsengine.ErrInstantiate,
				Message: "应用模板属性失败: " + p.name,
				Cause:   err,
			}
		}
	}
	return nil
}

func (p templateProperty) apply(c *Context, obj *goja.Object) error {
	if p.accessor {
		var getter, setter goja.Value
		if p.getter != nil {
			fn, err := p.getter.GetFunction(c)
			if err != nil {
				return err
			}
			getter = fn
		}
		if p.setter != nil {
			fn, err := p.setter.GetFunction(c)
			if err != nil {
				return err
			}
			setter = fn
		}
		return c.realm.DefineAccessor(obj, p.name, getter, setter, p.attr)
	}
	v, err := c.templateValue(p.value)
	if err != nil {
		return err
	}
	return c.realm.DefineProperty(obj, p.name, v, p.attr)
}

// templateValue 在上下文中解析模板属性值。
func (c *Context) templateValue(value any) (goja.Value, error) {
	switch v := value.(type) {
	case *FunctionTemplate:
		fn, err := v.GetFunction(c)
		if err != nil {
			return nil, err
		}
		return fn, nil
	case *ObjectTemplate:
		obj, err := v.NewInstance(c)
		if err != nil {
			return nil, err
		}
		return obj, nil
	case goja.Value:
		return v, nil
	case nil:
		return goja.Undefined(), nil
	default:
		gv := c.realm.ToValue(v)
		if _, isObj := gv.(*goja.Object); isObj {
			return nil, errors.Errorf("模板属性值 %T 不是原始值", value)
		}
		return gv, nil
	}
}
