package v8

import "github.com/dop251/goja"

// Value 是模板层的统一值句柄：要么承载一个 goja 原生值，要么是内部哨兵 hole。
// hole 不可能出现在脚本中，用于标记"返回值未写入"与"没有待抛出的异常"。
type Value struct {
	native goja.Value
	hole   bool
}

var theHole = Value{hole: true}

// valueOf 把原生值转换为句柄，nil 视为 undefined。
func valueOf(v goja.Value) Value {
	if v == nil {
		v = goja.Undefined()
	}
	return Value{native: v}
}

// IsHole 报告句柄是否为哨兵。
func (v Value) IsHole() bool {
	return v.hole
}

// Native 转换回原生值，hole 与零值均返回 undefined。
func (v Value) Native() goja.Value {
	if v.hole || v.native == nil {
		return goja.Undefined()
	}
	return v.native
}

// Object 在句柄承载对象时返回该对象。
func (v Value) Object() (*goja.Object, bool) {
	if v.hole {
		return nil, false
	}
	obj, ok := v.native.(*goja.Object)
	return obj, ok && obj != nil
}
