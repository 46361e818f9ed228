package v8

import (
	"context"
	"testing"

	"github.com/dop251/goja"

	"github.com/LiuQiulin/LiquidCore/jsengine"
)

func TestGetFunctionIdentity(t *testing.T) {
	iso, c := newTestContext(t)
	ft := NewFunctionTemplate(iso, nil, FunctionTemplateOptions{})

	fn1, err := ft.GetFunction(c)
	if err != nil {
		t.Fatalf("GetFunction 失败: %v", err)
	}
	fn2, err := ft.GetFunction(c)
	if err != nil {
		t.Fatalf("GetFunction 失败: %v", err)
	}
	if fn1 != fn2 {
		t.Fatal("同一上下文中应返回同一函数")
	}

	c2, err := iso.NewContext(context.Background())
	if err != nil {
		t.Fatalf("创建上下文失败: %v", err)
	}
	fn3, err := ft.GetFunction(c2)
	if err != nil {
		t.Fatalf("GetFunction 失败: %v", err)
	}
	if fn3 == fn1 {
		t.Fatal("不同上下文应得到不同函数")
	}
	if len(ft.functions) != 2 {
		t.Fatalf("缓存项数量错误: got=%d want=2", len(ft.functions))
	}

	// 释放上下文同时移除缓存与根
	roots := iso.roots.len()
	if err := c2.Dispose(); err != nil {
		t.Fatalf("释放上下文失败: %v", err)
	}
	if len(ft.functions) != 1 || iso.roots.len() != roots-1 {
		t.Fatalf("释放后缓存/根未回收: cache=%d roots=%d", len(ft.functions), iso.roots.len())
	}
	if _, err := ft.GetFunction(c2); !jsengine.IsKind(err, jsengine.ErrInstantiate) {
		t.Fatalf("已释放上下文应返回 ErrInstantiate: %v", err)
	}
}

func TestFunctionNameAndLength(t *testing.T) {
	iso, c := newTestContext(t)

	ft := NewFunctionTemplate(iso, nil, FunctionTemplateOptions{Length: 2})
	ft.SetClassName("Widget")
	if err := ft.Set("VERSION", 3, jsengine.AttrReadOnly); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	mustInstall(t, c, "Widget", ft)
	got := mustRun(t, c, `[Widget.name, Widget.length, Widget.VERSION, typeof Widget].join(",")`).String()
	if got != "Widget,2,3,function" {
		t.Fatalf("函数形状错误: got=%s", got)
	}

	anon := NewFunctionTemplate(iso, nil, FunctionTemplateOptions{})
	fn, err := anon.GetFunction(c)
	if err != nil {
		t.Fatalf("GetFunction 失败: %v", err)
	}
	if name := fn.Get("name").String(); name != "Function" {
		t.Fatalf("匿名模板名称错误: got=%s want=Function", name)
	}
	if l := fn.Get("length").ToInteger(); l != 0 {
		t.Fatalf("默认长度错误: got=%d want=0", l)
	}
}

func TestFunctionWithoutPrototype(t *testing.T) {
	iso, c := newTestContext(t)
	mustInstall(t, c, "Plain", NewFunctionTemplate(iso, nil, FunctionTemplateOptions{}))

	got := mustRun(t, c, `
		const d = Object.getOwnPropertyDescriptor(Plain, "prototype");
		[d.value === undefined, d.writable, d.enumerable, d.configurable].join(",")
	`).String()
	if got != "true,true,false,false" {
		t.Fatalf("prototype 描述符错误: got=%s", got)
	}
}

func TestPrototypeTemplate(t *testing.T) {
	iso, c := newTestContext(t)
	ft := NewFunctionTemplate(iso, nil, FunctionTemplateOptions{})
	if err := ft.PrototypeTemplate().Set("kind", "widget", jsengine.AttrNone); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	ft.ReadOnlyPrototype()
	mustInstall(t, c, "Widget", ft)

	got := mustRun(t, c, `
		const d = Object.getOwnPropertyDescriptor(Widget, "prototype");
		[Widget.prototype.kind, Widget.prototype.constructor === Widget, d.writable,
			Object.keys(Widget.prototype).join("|")].join(",")
	`).String()
	if got != "widget,true,false,kind" {
		t.Fatalf("原型对象错误: got=%s", got)
	}
}

func TestRemovePrototype(t *testing.T) {
	iso, c := newTestContext(t)
	ft := NewFunctionTemplate(iso, nil, FunctionTemplateOptions{})
	ft.PrototypeTemplate()
	ft.RemovePrototype()
	mustInstall(t, c, "Bare", ft)

	if v := mustRun(t, c, `Bare.prototype === undefined`); !v.ToBoolean() {
		t.Fatal("RemovePrototype 后不应有 prototype")
	}
}

func TestInheritLinksPrototypes(t *testing.T) {
	iso, c := newTestContext(t)
	parent := NewFunctionTemplate(iso, nil, FunctionTemplateOptions{})
	parent.SetClassName("Base")
	if err := parent.PrototypeTemplate().Set("hello", "base", jsengine.AttrNone); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	child := NewFunctionTemplate(iso, nil, FunctionTemplateOptions{})
	child.SetClassName("Derived")
	if err := child.Inherit(parent); err != nil {
		t.Fatalf("Inherit 失败: %v", err)
	}

	// 只安装子函数，父函数随之实体化
	mustInstall(t, c, "Derived", child)
	parentFn, err := parent.GetFunction(c)
	if err != nil {
		t.Fatalf("GetFunction 失败: %v", err)
	}
	if err := c.Global().Set("Base", parentFn); err != nil {
		t.Fatalf("设置全局变量失败: %v", err)
	}
	got := mustRun(t, c, `
		[Object.getPrototypeOf(Derived.prototype) === Base.prototype, Derived.prototype.hello,
			Derived.prototype.constructor === Derived].join(",")
	`).String()
	if got != "true,base,true" {
		t.Fatalf("继承链接错误: got=%s", got)
	}
}

func TestPrototypeProvider(t *testing.T) {
	iso, c := newTestContext(t)
	provider := NewFunctionTemplate(iso, nil, FunctionTemplateOptions{})
	provider.PrototypeTemplate()
	user := NewFunctionTemplate(iso, nil, FunctionTemplateOptions{})
	if err := user.SetPrototypeProviderTemplate(provider); err != nil {
		t.Fatalf("设置原型提供者失败: %v", err)
	}
	mustInstall(t, c, "Provider", provider)
	mustInstall(t, c, "User", user)

	if v := mustRun(t, c, `User.prototype === Provider.prototype`); !v.ToBoolean() {
		t.Fatal("应复用提供者的 prototype")
	}
}

func TestMaterializeFailureLeavesCacheEmpty(t *testing.T) {
	iso, c := newTestContext(t)
	ft := NewFunctionTemplate(iso, nil, FunctionTemplateOptions{})
	if err := ft.Set("config", map[string]int{"a": 1}, jsengine.AttrNone); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}

	roots := iso.roots.len()
	if _, err := ft.GetFunction(c); !jsengine.IsKind(err, jsengine.ErrInstantiate) {
		t.Fatalf("非原始值属性应导致 ErrInstantiate: %v", err)
	}
	if len(ft.functions) != 0 || iso.roots.len() != roots {
		t.Fatalf("失败后不应写入缓存: cache=%d roots=%d want=%d", len(ft.functions), iso.roots.len(), roots)
	}
	if len(c.materializing) != 0 {
		t.Fatal("实体化标记未清理")
	}
}

func TestSelfReferenceRejected(t *testing.T) {
	iso, c := newTestContext(t)
	ft := NewFunctionTemplate(iso, nil, FunctionTemplateOptions{})
	if err := ft.Set("self", ft, jsengine.AttrNone); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	if _, err := ft.GetFunction(c); !jsengine.IsKind(err, jsengine.ErrInstantiate) {
		t.Fatalf("自引用应返回 ErrInstantiate: %v", err)
	}
}

func TestNestedTemplateValues(t *testing.T) {
	iso, c := newTestContext(t)

	getter := NewFunctionTemplate(iso, func(info *FunctionCallbackInfo) error {
		info.ReturnValue().Set(info.Runtime().ToValue(10))
		return nil
	}, FunctionTemplateOptions{})
	inner := NewObjectTemplate(iso)
	if err := inner.Set("deep", true, jsengine.AttrNone); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	ot := NewObjectTemplate(iso)
	if err := ot.Set("inner", inner, jsengine.AttrNone); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	if err := ot.SetAccessorProperty("answer", getter, nil, jsengine.AttrDontEnum); err != nil {
		t.Fatalf("SetAccessorProperty 失败: %v", err)
	}

	obj, err := ot.NewInstance(c)
	if err != nil {
		t.Fatalf("NewInstance 失败: %v", err)
	}
	if err := c.Global().Set("o", obj); err != nil {
		t.Fatalf("设置全局变量失败: %v", err)
	}
	got := mustRun(t, c, `[o.answer, o.inner.deep, Object.keys(o).join("|")].join(",")`).String()
	if got != "10,true,inner" {
		t.Fatalf("嵌套模板值错误: got=%s", got)
	}

	// 每次 NewInstance 都得到新对象
	obj2, err := ot.NewInstance(c)
	if err != nil {
		t.Fatalf("NewInstance 失败: %v", err)
	}
	if obj2 == obj || obj2.Get("inner") == obj.Get("inner") {
		t.Fatal("NewInstance 应创建新对象")
	}
}

func TestInstanceTemplateNewInstance(t *testing.T) {
	iso, c := newTestContext(t)
	calls := 0
	ft := NewFunctionTemplate(iso, func(*FunctionCallbackInfo) error {
		calls++
		return nil
	}, FunctionTemplateOptions{})
	ft.SetClassName("Widget")
	ft.PrototypeTemplate()
	if err := ft.InstanceTemplate().Set("color", "red", jsengine.AttrNone); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}

	obj, err := ft.InstanceTemplate().NewInstance(c)
	if err != nil {
		t.Fatalf("NewInstance 失败: %v", err)
	}
	if calls != 0 {
		t.Fatalf("NewInstance 不应调用构造回调: calls=%d", calls)
	}
	if obj.Get("color").String() != "red" || !ft.HasInstance(obj) {
		t.Fatal("实例形状或原型错误")
	}
	if ft.HasInstance(c.Runtime().NewObject()) || ft.HasInstance(goja.Undefined()) {
		t.Fatal("无关值不应是实例")
	}
}

func TestDisposedIsolateInvalidatesTemplates(t *testing.T) {
	iso, c := newTestContext(t)
	ft := NewFunctionTemplate(iso, nil, FunctionTemplateOptions{})
	if _, err := ft.GetFunction(c); err != nil {
		t.Fatalf("GetFunction 失败: %v", err)
	}
	if err := iso.Dispose(); err != nil {
		t.Fatalf("释放隔离区失败: %v", err)
	}
	if len(ft.functions) != 0 || iso.roots.len() != 0 {
		t.Fatal("释放隔离区后应回收全部缓存与根")
	}
	if _, err := ft.GetFunction(c); err == nil {
		t.Fatal("释放后不应再能实体化")
	}
}

func TestParentFailurePropagates(t *testing.T) {
	iso, c := newTestContext(t)
	parent := NewFunctionTemplate(iso, nil, FunctionTemplateOptions{})
	if err := parent.Set("config", map[string]int{"a": 1}, jsengine.AttrNone); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	child := NewFunctionTemplate(iso, nil, FunctionTemplateOptions{})
	if err := child.Inherit(parent); err != nil {
		t.Fatalf("Inherit 失败: %v", err)
	}

	roots := iso.roots.len()
	if _, err := child.GetFunction(c); !jsengine.IsKind(err, jsengine.ErrInstantiate) {
		t.Fatalf("父模板失败应传递给子模板: %v", err)
	}
	if len(child.functions) != 0 || len(parent.functions) != 0 {
		t.Fatalf("失败后不应写入缓存: child=%d parent=%d", len(child.functions), len(parent.functions))
	}
	if iso.roots.len() != roots {
		t.Fatalf("失败后根数量不应变化: got=%d want=%d", iso.roots.len(), roots)
	}
	// 实体化不应为仅有父模板的子模板补建原型模板
	if child.prototypeTemplateOrNil() != nil {
		t.Fatal("实体化不应修改模板")
	}
}
