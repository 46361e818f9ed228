package jsengine

import (
	"context"

	"go.uber.org/zap"
)

// EngineName 标识 JS 引擎实现类型。
type EngineName string

const (
	EngineGoja    EngineName = "goja"
	EngineQuickJS EngineName = "quickjs"
)

// Config 是引擎实现使用的最小运行配置。
// 该结构应保持小且与具体引擎无关，仅在需要时扩展字段。
type Config struct {
	Name      EngineName
	ModuleDir string
	// Console 为 true 时在全局注入 console 对象。
	Console bool
	Logger  *zap.SugaredLogger
}

// HostAPI 表示宿主侧提供给脚本引擎的全局注册项。
// Handler 的具体类型由适配器决定（goja 适配器接受 goja.Value 或任意可被 ToValue 转换的 Go 值）。
type HostAPI struct {
	Name    string
	Handler any
}

// ErrorKind 定义脚本引擎层统一的错误类别。
type ErrorKind string

const (
	ErrInit     ErrorKind = "init"
	ErrEval     ErrorKind = "eval"
	ErrModule   ErrorKind = "module"
	ErrRuntime  ErrorKind = "runtime"
	ErrInternal ErrorKind = "internal"
	// ErrInstantiate 模板形状应用或原型对象创建失败。
	ErrInstantiate ErrorKind = "instantiate"
	// ErrCallback 宿主回调抛出的异常。
	ErrCallback ErrorKind = "callback"
	// ErrUnsupported 当前实现不提供的模板能力。
	ErrUnsupported ErrorKind = "unsupported"
)

// EngineError 是引擎适配层返回的统一错误结构。
type EngineError struct {
	Kind    ErrorKind
	Message string
	Stack   string
	Cause   error
}

func (e *EngineError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind)
}

// Unwrap 返回底层原因。
func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsKind 判断 err 链上是否存在指定类别的 EngineError。
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		if ee, ok := err.(*EngineError); ok && ee.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// PropertyAttribute 对应属性描述符的三个布尔位，零值表示可写、可枚举、可删除。
type PropertyAttribute uint8

const AttrNone PropertyAttribute = 0

const (
	AttrReadOnly PropertyAttribute = 1 << iota
	AttrDontEnum
	AttrDontDelete
)

func (a PropertyAttribute) Writable() bool     { return a&AttrReadOnly == 0 }
func (a PropertyAttribute) Enumerable() bool   { return a&AttrDontEnum == 0 }
func (a PropertyAttribute) Configurable() bool { return a&AttrDontDelete == 0 }

// Engine 是 JS 运行时统一抽象接口。
// 每个 Engine 实例对应一个独立的全局环境（执行上下文）。
type Engine interface {
	Name() EngineName
	Init(ctx context.Context, cfg Config) error
	Dispose() error

	// Eval 执行脚本文本。
	Eval(code string) error
	// EvalWithResult 执行脚本并导出表达式结果。
	EvalWithResult(code string) (any, error)
	// Require 按模块标识加载模块（路径或 ID 的解析策略由适配器决定）。
	Require(moduleID string) error

	RegisterHostAPI(api HostAPI) error
}
