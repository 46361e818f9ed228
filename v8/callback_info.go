package v8

import "github.com/dop251/goja"

// FunctionCallback 是宿主回调。
// 失败可以通过三种方式表达：返回 error、在回调内 panic 一个 goja 值（原生抛出），
// 或调用 Isolate.ThrowException 登记异常。桥接层会把它们统一为一次脚本异常。
type FunctionCallback func(info *FunctionCallbackInfo) error

// implicitArgs 是回调记录中的隐式槽位。
type implicitArgs struct {
	holder             Value
	isolate            *Isolate
	returnValueDefault Value
	returnValue        Value
	data               Value
	callee             Value // 保留，不再使用
	contextSave        Value // 保留
	newTarget          Value
}

// FunctionCallbackInfo 是传给宿主回调的调用记录。
// values[0] 是接收者，values[i+1] 是第 i 个显式参数，因此 Arg(-1) 返回接收者。
type FunctionCallbackInfo struct {
	implicit  implicitArgs
	values    []Value
	ctx       *Context
	construct bool
}

func newCallbackInfo(c *Context, receiver Value, args []goja.Value, data Value, newTarget Value, construct bool) *FunctionCallbackInfo {
	values := make([]Value, len(args)+1)
	values[0] = receiver
	for i, a := range args {
		values[i+1] = valueOf(a)
	}
	return &FunctionCallbackInfo{
		implicit: implicitArgs{
			holder:             receiver,
			isolate:            c.iso,
			returnValueDefault: theHole,
			returnValue:        theHole,
			data:               data,
			callee:             theHole,
			contextSave:        theHole,
			newTarget:          newTarget,
		},
		values:    values,
		ctx:       c,
		construct: construct,
	}
}

// Length 返回显式参数个数。
func (i *FunctionCallbackInfo) Length() int {
	return len(i.values) - 1
}

// Arg 返回第 n 个参数，n 为 -1 时返回接收者，越界返回 undefined。
func (i *FunctionCallbackInfo) Arg(n int) goja.Value {
	if n < -1 || n+1 >= len(i.values) {
		return goja.Undefined()
	}
	return i.values[n+1].Native()
}

// Args 返回全部显式参数的副本。
func (i *FunctionCallbackInfo) Args() []goja.Value {
	out := make([]goja.Value, 0, i.Length())
	for _, v := range i.values[1:] {
		out = append(out, v.Native())
	}
	return out
}

// This 返回接收者对象，接收者不是对象时返回 nil。
func (i *FunctionCallbackInfo) This() *goja.Object {
	obj, _ := i.values[0].Object()
	return obj
}

// Holder 返回持有者，目前总是接收者。
func (i *FunctionCallbackInfo) Holder() *goja.Object {
	obj, _ := i.implicit.holder.Object()
	return obj
}

// NewTarget 构造调用时为接收者，普通调用时为 undefined。
func (i *FunctionCallbackInfo) NewTarget() goja.Value {
	return i.implicit.newTarget.Native()
}

// IsConstructCall 报告本次是否为 new 调用。
func (i *FunctionCallbackInfo) IsConstructCall() bool {
	return i.construct
}

// Data 返回模板的关联数据。
func (i *FunctionCallbackInfo) Data() goja.Value {
	return i.implicit.data.Native()
}

func (i *FunctionCallbackInfo) Isolate() *Isolate {
	return i.implicit.isolate
}

// Context 返回发生调用的执行上下文。
func (i *FunctionCallbackInfo) Context() *Context {
	return i.ctx
}

func (i *FunctionCallbackInfo) Runtime() *goja.Runtime {
	return i.ctx.Runtime()
}

// ReturnValue 返回返回值槽位的写入器。
func (i *FunctionCallbackInfo) ReturnValue() ReturnValue {
	return ReturnValue{info: i}
}

// ReturnValue 写入回调记录的返回值槽位。
type ReturnValue struct {
	info *FunctionCallbackInfo
}

// Set 写入返回值，nil 视为 undefined。
func (r ReturnValue) Set(v goja.Value) {
	r.info.implicit.returnValue = valueOf(v)
}

func (r ReturnValue) SetUndefined() {
	r.Set(goja.Undefined())
}

func (r ReturnValue) SetNull() {
	r.Set(goja.Null())
}

// Get 返回当前写入的值，未写入时返回 undefined。
func (r ReturnValue) Get() goja.Value {
	return r.info.implicit.returnValue.Native()
}

// IsSet 报告返回值是否被写入过。
func (r ReturnValue) IsSet() bool {
	return !r.info.implicit.returnValue.IsHole()
}
