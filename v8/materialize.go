package v8

import (
	"github.com/dop251/goja"

	"github.com/LiuQiulin/LiquidCore/jsengine"
)

// GetFunction 返回模板在上下文中唯一的函数对象，首次调用时创建并缓存。
// 任何一步失败都不会写入缓存，之后可以重新尝试。
func (ft *FunctionTemplate) GetFunction(c *Context) (*goja.Object, error) {
	if err := c.usable(jsengine.ErrInstantiate); err != nil {
		return nil, err
	}
	if c.iso != ft.iso || !ft.iso.arena.alive(ft.self) {
		return nil, &jsengine.EngineError{
			Kind:    jsengine.ErrRuntime,
			Message: "模板不属于该上下文的隔离区或已失效",
		}
	}
	if cached, ok := ft.functions[c]; ok {
		return cached.fn, nil
	}
	if c.materializing[ft] {
		return nil, instantiateError("模板在自身实体化过程中被再次引用: "+ft.name, nil)
	}
	c.materializing[ft] = true
	defer delete(c.materializing, ft)

	fn, err := c.buildTrampoline(ft)
	if err != nil {
		return nil, err
	}

	if err := ft.applyShape(c, fn); err != nil {
		return nil, err
	}
	if ot := ft.instanceTemplateOrNil(); ot != nil {
		if err := ot.validateShape(); err != nil {
			return nil, err
		}
	}

	proto, err := ft.newPrototype(c, fn)
	if err != nil {
		return nil, err
	}
	attr := jsengine.AttrDontEnum | jsengine.AttrDontDelete
	if ft.readOnlyPrototype {
		attr |= jsengine.AttrReadOnly
	}
	var protoValue goja.Value = goja.Undefined()
	if proto != nil {
		protoValue = proto
	}
	if err := c.realm.DefineProperty(fn, "prototype", protoValue, attr); err != nil {
		return nil, instantiateError("设置 prototype 失败", err)
	}

	if parent := ft.Parent(); parent != nil {
		parentFn, err := parent.GetFunction(c)
		if err != nil {
			return nil, err
		}
		if parentProto, ok := parentFn.Get("prototype").(*goja.Object); ok && proto != nil {
			if err := c.realm.SetPrototype(proto, parentProto); err != nil {
				return nil, instantiateError("链接父模板原型失败", err)
			}
		}
	} else if ft.parent.valid() {
		return nil, instantiateError("父模板已失效: "+ft.name, nil)
	}

	ft.cache(c, fn)
	c.iso.logger.Debugf("模板 %q 在上下文 #%d 中实体化", ft.name, c.id)
	return fn, nil
}

// newPrototype 创建函数的 prototype 对象；返回 nil 表示函数不带 prototype。
// 存在原型模板或父模板时都需要原型对象，后者仅用于承载继承链接。
func (ft *FunctionTemplate) newPrototype(c *Context, fn *goja.Object) (*goja.Object, error) {
	if ft.removePrototype {
		return nil, nil
	}
	if provider := ft.prototypeProviderOrNil(); provider != nil {
		if ft.prototypeTemplate.valid() || ft.parent.valid() {
			return nil, &jsengine.EngineError{
				Kind:    jsengine.ErrUnsupported,
				Message: "原型提供者与原型模板、继承互斥",
			}
		}
		providerFn, err := provider.GetFunction(c)
		if err != nil {
			return nil, err
		}
		proto, _ := providerFn.Get("prototype").(*goja.Object)
		return proto, nil
	}
	if !ft.prototypeTemplate.valid() && !ft.parent.valid() {
		return nil, nil
	}
	// 仅有父模板时不创建原型模板，实体化不改动模板本身。
	proto := c.realm.NewHostObject("")
	if pt := ft.prototypeTemplateOrNil(); pt != nil {
		if err := pt.applyShape(c, proto); err != nil {
			return nil, err
		}
	}
	if err := c.realm.DefineProperty(proto, "constructor", fn, jsengine.AttrDontEnum); err != nil {
		return nil, instantiateError("设置 constructor 失败", err)
	}
	return proto, nil
}
