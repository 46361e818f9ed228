package v8

import (
	"github.com/dop251/goja"

	"github.com/LiuQiulin/LiquidCore/jsengine"
)

// ConstructorBehavior 决定实体化后的函数能否被 new 调用。
type ConstructorBehavior int

const (
	ConstructorAllow ConstructorBehavior = iota
	// ConstructorThrow 使 new 调用抛出 TypeError，普通调用不受影响。
	ConstructorThrow
)

// FunctionTemplateOptions 是创建函数模板时的可选参数。
type FunctionTemplateOptions struct {
	Data      goja.Value
	Signature *Signature
	Length    int
	Behavior  ConstructorBehavior
}

type cachedFunction struct {
	fn   *goja.Object
	root rootID
}

// FunctionTemplate 描述一个可调用、可构造的函数，在每个执行上下文中最多实体化一次。
//
//	FunctionTemplate Parent  -> Parent() . prototype -> { }
//	  ^                                                  ^
//	  | Inherit(Parent)                                  | [[Prototype]]
//	  |                                                  |
//	FunctionTemplate Child   -> Child()  . prototype -> { }
type FunctionTemplate struct {
	template

	signature         ref
	length            int
	behavior          ConstructorBehavior
	parent            ref
	instanceTemplate  ref
	prototypeTemplate ref
	prototypeProvider ref
	readOnlyPrototype bool
	removePrototype   bool

	functions map[*Context]cachedFunction
}

// NewFunctionTemplate 创建函数模板，关联数据在模板存活期间登记为根。
func NewFunctionTemplate(iso *Isolate, callback FunctionCallback, opts FunctionTemplateOptions) *FunctionTemplate {
	ft := &FunctionTemplate{
		length:    opts.Length,
		behavior:  opts.Behavior,
		functions: map[*Context]cachedFunction{},
	}
	ft.init(iso, opts.Data)
	ft.callback = callback
	if opts.Signature != nil && opts.Signature.iso == iso {
		ft.signature = opts.Signature.self
	}
	ft.self = iso.arena.add(arenaEntry{kind: kindFunction, fn: ft})
	return ft
}

// FunctionTemplateFromSnapshot 不支持快照。
func FunctionTemplateFromSnapshot(_ *Isolate, _ int) (*FunctionTemplate, error) {
	return nil, errUnsupported("FunctionTemplateFromSnapshot")
}

// SetCallHandler 替换回调与关联数据。
func (ft *FunctionTemplate) SetCallHandler(callback FunctionCallback, data goja.Value) {
	ft.callback = callback
	ft.setData(data)
}

// SetLength 设置实体化函数的 length，只影响之后的实体化。
func (ft *FunctionTemplate) SetLength(length int) {
	ft.length = length
}

// Length 返回声明的参数个数。
func (ft *FunctionTemplate) Length() int {
	return ft.length
}

// SetClassName 设置类名，用作实体化函数的 name 以及实例的类名标记。
func (ft *FunctionTemplate) SetClassName(name string) {
	ft.name = name
}

// ClassName 返回类名，未设置时为空串。
func (ft *FunctionTemplate) ClassName() string {
	return ft.name
}

// Behavior 返回构造行为。
func (ft *FunctionTemplate) Behavior() ConstructorBehavior {
	return ft.behavior
}

// Signature 返回创建时指定的签名，没有或已失效时返回 nil。
func (ft *FunctionTemplate) Signature() *Signature {
	if !ft.signature.valid() {
		return nil
	}
	sig, err := ft.iso.arena.signature(ft.signature)
	if err != nil {
		return nil
	}
	return sig
}

// Inherit 设置父模板：实体化后本函数 prototype 的原型指向父函数的 prototype。
func (ft *FunctionTemplate) Inherit(parent *FunctionTemplate) error {
	if parent == nil || parent.iso != ft.iso {
		return &jsengine.EngineError{Kind: jsengine.ErrRuntime, Message: "父模板必须属于同一隔离区"}
	}
	if ft.prototypeProvider.valid() {
		return &jsengine.EngineError{
			Kind:    jsengine.ErrUnsupported,
			Message: "已设置原型提供者的模板不能再继承",
		}
	}
	for p := parent; p != nil; p = p.Parent() {
		if p == ft {
			return &jsengine.EngineError{Kind: jsengine.ErrRuntime, Message: "模板继承链出现环"}
		}
	}
	ft.parent = parent.self
	return nil
}

// Parent 返回父模板，没有时返回 nil。
func (ft *FunctionTemplate) Parent() *FunctionTemplate {
	if !ft.parent.valid() {
		return nil
	}
	p, err := ft.iso.arena.function(ft.parent)
	if err != nil {
		return nil
	}
	return p
}

// InstanceTemplate 返回实例模板，首次访问时创建。
func (ft *FunctionTemplate) InstanceTemplate() *ObjectTemplate {
	if ot := ft.instanceTemplateOrNil(); ot != nil {
		return ot
	}
	ot := NewObjectTemplate(ft.iso)
	ot.setConstructor(ft)
	ft.instanceTemplate = ot.self
	return ot
}

func (ft *FunctionTemplate) instanceTemplateOrNil() *ObjectTemplate {
	if !ft.instanceTemplate.valid() {
		return nil
	}
	ot, err := ft.iso.arena.object(ft.instanceTemplate)
	if err != nil {
		return nil
	}
	return ot
}

// PrototypeTemplate 返回原型模板，首次访问时创建。
func (ft *FunctionTemplate) PrototypeTemplate() *ObjectTemplate {
	if ot := ft.prototypeTemplateOrNil(); ot != nil {
		return ot
	}
	ot := NewObjectTemplate(ft.iso)
	ft.prototypeTemplate = ot.self
	return ot
}

func (ft *FunctionTemplate) prototypeTemplateOrNil() *ObjectTemplate {
	if !ft.prototypeTemplate.valid() {
		return nil
	}
	ot, err := ft.iso.arena.object(ft.prototypeTemplate)
	if err != nil {
		return nil
	}
	return ot
}

// SetPrototypeProviderTemplate 让实体化函数直接复用 provider 函数的 prototype。
// 与 PrototypeTemplate、Inherit 互斥。
func (ft *FunctionTemplate) SetPrototypeProviderTemplate(provider *FunctionTemplate) error {
	if provider == nil || provider.iso != ft.iso {
		return &jsengine.EngineError{Kind: jsengine.ErrRuntime, Message: "原型提供者必须属于同一隔离区"}
	}
	if ft.prototypeTemplate.valid() || ft.parent.valid() {
		return &jsengine.EngineError{
			Kind:    jsengine.ErrUnsupported,
			Message: "原型提供者与原型模板、继承互斥",
		}
	}
	ft.prototypeProvider = provider.self
	return nil
}

func (ft *FunctionTemplate) prototypeProviderOrNil() *FunctionTemplate {
	if !ft.prototypeProvider.valid() {
		return nil
	}
	p, err := ft.iso.arena.function(ft.prototypeProvider)
	if err != nil {
		return nil
	}
	return p
}

// ReadOnlyPrototype 使实体化函数的 prototype 属性只读。
func (ft *FunctionTemplate) ReadOnlyPrototype() {
	ft.readOnlyPrototype = true
}

// RemovePrototype 使实体化函数不带 prototype 对象。
func (ft *FunctionTemplate) RemovePrototype() {
	ft.removePrototype = true
}

// SetHiddenPrototype 未实现，总是返回 ErrUnsupported。
func (ft *FunctionTemplate) SetHiddenPrototype(bool) error {
	return errUnsupported("SetHiddenPrototype")
}

// SetAcceptAnyReceiver 未实现，接收者本就不做校验。
func (ft *FunctionTemplate) SetAcceptAnyReceiver(bool) error {
	return errUnsupported("SetAcceptAnyReceiver")
}

// NewRemoteInstance 未实现。
func (ft *FunctionTemplate) NewRemoteInstance() (*goja.Object, error) {
	return nil, errUnsupported("NewRemoteInstance")
}

// HasInstance 判断 v 是否由本模板（或其子模板）在某个上下文中构造。
func (ft *FunctionTemplate) HasInstance(v goja.Value) bool {
	obj, ok := v.(*goja.Object)
	if !ok || obj == nil {
		return false
	}
	for _, cached := range ft.functions {
		proto, ok := cached.fn.Get("prototype").(*goja.Object)
		if !ok {
			continue
		}
		for p := obj.Prototype(); p != nil; p = p.Prototype() {
			if p.SameAs(proto) {
				return true
			}
		}
	}
	return false
}

// applyInstanceShape 自最远祖先起依次应用各级实例模板。
func (ft *FunctionTemplate) applyInstanceShape(c *Context, obj *goja.Object) error {
	var chain []*FunctionTemplate
	for t := ft; t != nil; t = t.Parent() {
		chain = append(chain, t)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if ot := chain[i].instanceTemplateOrNil(); ot != nil {
			if err := ot.applyShape(c, obj); err != nil {
				return err
			}
		}
	}
	return nil
}

// cache 同时写入缓存与登记根，二者必须一起发生。
func (ft *FunctionTemplate) cache(c *Context, fn *goja.Object) {
	ft.functions[c] = cachedFunction{fn: fn, root: ft.iso.protect(fn)}
}

// forget 同时移除缓存项与根。
func (ft *FunctionTemplate) forget(c *Context) {
	cached, ok := ft.functions[c]
	if !ok {
		return
	}
	ft.iso.unprotect(cached.root)
	delete(ft.functions, c)
}

func errUnsupported(op string) error {
	return &jsengine.EngineError{
		Kind:    jsengine.ErrUnsupported,
		Message: op + " 未实现",
	}
}
