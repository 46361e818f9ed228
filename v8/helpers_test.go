package v8

import (
	"context"
	"testing"

	"github.com/dop251/goja"
)

func newTestContext(t *testing.T) (*Isolate, *Context) {
	t.Helper()
	iso := NewIsolate(IsolateConfig{})
	c, err := iso.NewContext(context.Background())
	if err != nil {
		t.Fatalf("创建上下文失败: %v", err)
	}
	t.Cleanup(func() { _ = iso.Dispose() })
	return iso, c
}

func mustRun(t *testing.T, c *Context, src string) goja.Value {
	t.Helper()
	v, err := c.RunScript(src)
	if err != nil {
		t.Fatalf("脚本执行失败 %q: %v", src, err)
	}
	return v
}

func mustInstall(t *testing.T, c *Context, name string, ft *FunctionTemplate) {
	t.Helper()
	if err := c.Install(name, ft); err != nil {
		t.Fatalf("安装 %s 失败: %v", name, err)
	}
}
