package jsengine

import (
	"fmt"
	"testing"
)

func TestLifecycleStateTransitions(t *testing.T) {
	lc := NewLifecycle()
	if lc.State() != StateNew {
		t.Fatalf("初始状态错误: got=%v want=%v", lc.State(), StateNew)
	}

	if !lc.CompareAndSwap(StateNew, StateIniting) {
		t.Fatal("期望从 StateNew 切换到 StateIniting 成功")
	}
	if lc.State() != StateIniting {
		t.Fatalf("状态错误: got=%v want=%v", lc.State(), StateIniting)
	}

	if lc.CompareAndSwap(StateNew, StateReady) {
		t.Fatal("不应允许从错误旧状态切换")
	}

	lc.Store(StateReady)
	if lc.State() != StateReady {
		t.Fatalf("Store 后状态错误: got=%v want=%v", lc.State(), StateReady)
	}
}

func TestLifecycleRequireReady(t *testing.T) {
	lc := NewLifecycle()
	err := lc.RequireReady(ErrEval, "上下文")
	if !IsKind(err, ErrEval) {
		t.Fatalf("未就绪时应返回 ErrEval: %v", err)
	}
	lc.Store(StateReady)
	if err := lc.RequireReady(ErrEval, "上下文"); err != nil {
		t.Fatalf("就绪后不应失败: %v", err)
	}
}

func TestLifecycleBeginDisposeIdempotent(t *testing.T) {
	lc := NewLifecycle()
	if _, err := lc.BeginDispose("隔离区"); err == nil {
		t.Fatal("StateNew 不应允许释放")
	}
	lc.Store(StateReady)
	ok, err := lc.BeginDispose("隔离区")
	if !ok || err != nil {
		t.Fatalf("Ready 状态释放失败: ok=%v err=%v", ok, err)
	}
	if lc.State() != StateDisposing {
		t.Fatalf("状态错误: got=%v want=%v", lc.State(), StateDisposing)
	}
	lc.Store(StateClosed)
	ok, err = lc.BeginDispose("隔离区")
	if ok || err != nil {
		t.Fatalf("重复释放应幂等: ok=%v err=%v", ok, err)
	}
}

func TestIsKindFollowsWrapChain(t *testing.T) {
	inner := &EngineError{Kind: ErrUnsupported, Message: "x"}
	wrapped := fmt.Errorf("outer: %w", inner)
	if !IsKind(wrapped, ErrUnsupported) {
		t.Fatal("IsKind 应沿 Unwrap 链查找")
	}
	if IsKind(wrapped, ErrInit) {
		t.Fatal("IsKind 不应匹配其他类别")
	}
}
