package v8

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/LiuQiulin/LiquidCore/jsengine"
	"github.com/LiuQiulin/LiquidCore/jsengine/gojajs"
)

// bareEngine 不提供 goja 原语，用于验证上下文创建的前置检查。
type bareEngine struct {
	disposed bool
}

func (e *bareEngine) Name() jsengine.EngineName                   { return "bare" }
func (e *bareEngine) Init(context.Context, jsengine.Config) error { return nil }
func (e *bareEngine) Dispose() error                              { e.disposed = true; return nil }
func (e *bareEngine) Eval(string) error                           { return nil }
func (e *bareEngine) EvalWithResult(string) (any, error)          { return nil, nil }
func (e *bareEngine) Require(string) error                        { return nil }
func (e *bareEngine) RegisterHostAPI(jsengine.HostAPI) error      { return nil }

func TestIsolateContexts(t *testing.T) {
	iso := NewIsolate(IsolateConfig{})
	c1, err := iso.NewContext(context.Background())
	if err != nil {
		t.Fatalf("创建上下文失败: %v", err)
	}
	c2, err := iso.NewContext(context.Background())
	if err != nil {
		t.Fatalf("创建上下文失败: %v", err)
	}
	if c1.ID() == c2.ID() || len(iso.Contexts()) != 2 {
		t.Fatalf("上下文登记错误: ids=%d,%d n=%d", c1.ID(), c2.ID(), len(iso.Contexts()))
	}
	if c1.Engine().Name() != jsengine.EngineGoja || c1.Isolate() != iso {
		t.Fatal("上下文关联错误")
	}

	if err := c1.Dispose(); err != nil {
		t.Fatalf("释放上下文失败: %v", err)
	}
	if err := c1.Dispose(); err != nil {
		t.Fatalf("重复释放不应失败: %v", err)
	}
	if n := len(iso.Contexts()); n != 1 {
		t.Fatalf("释放后上下文数量错误: got=%d want=1", n)
	}
	if _, err := c1.RunScript("1"); !jsengine.IsKind(err, jsengine.ErrEval) {
		t.Fatalf("已释放上下文执行脚本应返回 ErrEval: %v", err)
	}

	if err := iso.Dispose(); err != nil {
		t.Fatalf("释放隔离区失败: %v", err)
	}
	if _, err := c2.RunScript("1"); err == nil {
		t.Fatal("隔离区释放后上下文应不可用")
	}
	if _, err := iso.NewContext(context.Background()); !jsengine.IsKind(err, jsengine.ErrInit) {
		t.Fatalf("隔离区释放后不能创建上下文: %v", err)
	}
}

func TestAttachContext(t *testing.T) {
	iso := NewIsolate(IsolateConfig{})
	defer iso.Dispose()

	bare := &bareEngine{}
	if _, err := iso.AttachContext(context.Background(), bare); !jsengine.IsKind(err, jsengine.ErrInit) {
		t.Fatalf("无 goja 原语的引擎应返回 ErrInit: %v", err)
	}
	if !bare.disposed {
		t.Fatal("被拒绝的引擎应被释放")
	}

	c, err := iso.AttachContext(context.Background(), gojajs.NewAdapter())
	if err != nil {
		t.Fatalf("附加上下文失败: %v", err)
	}
	if c.Realm() == nil || c.Global() == nil {
		t.Fatal("附加的上下文缺少全局环境")
	}
}

func TestRunScriptError(t *testing.T) {
	_, c := newTestContext(t)
	_, err := c.RunScript(`function f() { throw new Error("bad"); }
f();`)
	if !jsengine.IsKind(err, jsengine.ErrEval) {
		t.Fatalf("脚本异常应返回 ErrEval: %v", err)
	}
	var ee *jsengine.EngineError
	if !errors.As(err, &ee) || ee.Stack == "" {
		t.Fatalf("脚本异常应带调用栈: %+v", err)
	}
}

func TestInstallAcrossContexts(t *testing.T) {
	iso, c := newTestContext(t)
	ft := NewFunctionTemplate(iso, func(info *FunctionCallbackInfo) error {
		info.ReturnValue().Set(info.Runtime().ToValue(info.Context().ID()))
		return nil
	}, FunctionTemplateOptions{})
	mustInstall(t, c, "Who", ft)

	c2, err := iso.NewContext(context.Background())
	if err != nil {
		t.Fatalf("创建上下文失败: %v", err)
	}
	mustInstall(t, c2, "Who", ft)

	a := mustRun(t, c, `Who()`).ToInteger()
	b := mustRun(t, c2, `Who()`).ToInteger()
	if a != int64(c.ID()) || b != int64(c2.ID()) {
		t.Fatalf("回调上下文错误: got=%d,%d want=%d,%d", a, b, c.ID(), c2.ID())
	}
}
