// Package hostlib 提供一组示例宿主模板，CLI 与 HTTP 接口都会把它们安装到执行上下文中。
package hostlib

import (
	"math"
	"slices"
	"strings"

	"github.com/dop251/goja"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/LiuQiulin/LiquidCore/jsengine"
	"github.com/LiuQiulin/LiquidCore/v8"
)

// Templates 是全局名称到函数模板的映射。
type Templates map[string]*v8.FunctionTemplate

// New 在隔离区中创建全部示例模板。
func New(iso *v8.Isolate) (Templates, error) {
	point, err := newPoint(iso)
	if err != nil {
		return nil, err
	}
	widget, err := newWidget(iso)
	if err != nil {
		return nil, err
	}
	return Templates{
		"Widget": widget,
		"Point":  point,
		"print":  newPrint(iso),
	}, nil
}

// Names 返回排序后的全局名称。
func (t Templates) Names() []string {
	names := lo.Keys(t)
	slices.Sort(names)
	return names
}

// Install 把全部模板实体化并暴露到上下文的全局对象上。
func (t Templates) Install(c *v8.Context) error {
	for _, name := range t.Names() {
		if err := c.Install(name, t[name]); err != nil {
			return errors.Wrapf(err, "安装 %s 失败", name)
		}
	}
	return nil
}

// newWidget: 直接调用返回 42；new Widget(size) 得到带 size 的实例。
func newWidget(iso *v8.Isolate) (*v8.FunctionTemplate, error) {
	ft := v8.NewFunctionTemplate(iso, func(info *v8.FunctionCallbackInfo) error {
		if !info.IsConstructCall() {
			info.ReturnValue().Set(info.Runtime().ToValue(42))
			return nil
		}
		return info.This().Set("size", info.Arg(0))
	}, v8.FunctionTemplateOptions{Length: 1})
	ft.SetClassName("Widget")
	if err := ft.PrototypeTemplate().Set("kind", "widget", jsengine.AttrDontEnum); err != nil {
		return nil, err
	}
	return ft, nil
}

func newPoint(iso *v8.Isolate) (*v8.FunctionTemplate, error) {
	var point *v8.FunctionTemplate
	point = v8.NewFunctionTemplate(iso, func(info *v8.FunctionCallbackInfo) error {
		if !info.IsConstructCall() {
			panic(info.Runtime().NewTypeError("Class constructor Point cannot be invoked without 'new'"))
		}
		this := info.This()
		if info.Length() > 0 {
			if err := this.Set("x", info.Arg(0).ToFloat()); err != nil {
				return err
			}
		}
		if info.Length() > 1 {
			return this.Set("y", info.Arg(1).ToFloat())
		}
		return nil
	}, v8.FunctionTemplateOptions{Length: 2})
	point.SetClassName("Point")

	inst := point.InstanceTemplate()
	if err := inst.Set("x", 0, jsengine.AttrNone); err != nil {
		return nil, err
	}
	if err := inst.Set("y", 0, jsengine.AttrNone); err != nil {
		return nil, err
	}

	sig := v8.NewSignature(iso, point)
	norm := v8.NewFunctionTemplate(iso, func(info *v8.FunctionCallbackInfo) error {
		x, y := coords(info.This())
		info.ReturnValue().Set(info.Runtime().ToValue(math.Hypot(x, y)))
		return nil
	}, v8.FunctionTemplateOptions{Signature: sig, Behavior: v8.ConstructorThrow})
	norm.RemovePrototype()

	add := v8.NewFunctionTemplate(iso, func(info *v8.FunctionCallbackInfo) error {
		other, ok := info.Arg(0).(*goja.Object)
		if !ok || !point.HasInstance(other) {
			panic(info.Runtime().NewTypeError("Point.prototype.add 需要 Point 参数"))
		}
		x1, y1 := coords(info.This())
		x2, y2 := coords(other)
		fn, err := point.GetFunction(info.Context())
		if err != nil {
			return err
		}
		rt := info.Runtime()
		sum, err := rt.New(fn, rt.ToValue(x1+x2), rt.ToValue(y1+y2))
		if err != nil {
			return err
		}
		info.ReturnValue().Set(sum)
		return nil
	}, v8.FunctionTemplateOptions{Signature: sig, Length: 1, Behavior: v8.ConstructorThrow})
	add.RemovePrototype()

	proto := point.PrototypeTemplate()
	if err := proto.SetAccessorProperty("norm", norm, nil, jsengine.AttrDontEnum); err != nil {
		return nil, err
	}
	if err := proto.Set("add", add, jsengine.AttrDontEnum); err != nil {
		return nil, err
	}
	return point, nil
}

func coords(obj *goja.Object) (float64, float64) {
	if obj == nil {
		return 0, 0
	}
	return toFloat(obj.Get("x")), toFloat(obj.Get("y"))
}

func toFloat(v goja.Value) float64 {
	if v == nil {
		return 0
	}
	return v.ToFloat()
}

// newPrint 把参数拼接后写入隔离区日志。
func newPrint(iso *v8.Isolate) *v8.FunctionTemplate {
	ft := v8.NewFunctionTemplate(iso, func(info *v8.FunctionCallbackInfo) error {
		parts := lo.Map(info.Args(), func(v goja.Value, _ int) string {
			return v.String()
		})
		info.Isolate().Logger().Infof("[print] %s", strings.Join(parts, " "))
		return nil
	}, v8.FunctionTemplateOptions{Behavior: v8.ConstructorThrow})
	ft.SetClassName("print")
	ft.RemovePrototype()
	return ft
}
