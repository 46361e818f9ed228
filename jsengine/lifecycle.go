package jsengine

import "sync/atomic"

// State 表示引擎、隔离区或上下文的生命周期状态。
type State int32

const (
	StateNew State = iota
	StateIniting
	StateReady
	StateDisposing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateIniting:
		return "initing"
	case StateReady:
		return "ready"
	case StateDisposing:
		return "disposing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Lifecycle 提供线程安全的状态管理。
// 用于统一 Init/Dispose 并发时的状态切换约束。
type Lifecycle struct {
	state atomic.Int32
}

// NewLifecycle 创建生命周期管理器，初始状态为 StateNew。
func NewLifecycle() *Lifecycle {
	l := &Lifecycle{}
	l.state.Store(int32(StateNew))
	return l
}

// State 返回当前状态。
func (l *Lifecycle) State() State {
	return State(l.state.Load())
}

// CompareAndSwap 尝试原子切换状态。
func (l *Lifecycle) CompareAndSwap(oldState, newState State) bool {
	return l.state.CompareAndSwap(int32(oldState), int32(newState))
}

// Store 强制设置状态。
func (l *Lifecycle) Store(s State) {
	l.state.Store(int32(s))
}

// RequireReady 在非 StateReady 时返回 kind 类别的错误，what 描述被拒绝的对象。
func (l *Lifecycle) RequireReady(kind ErrorKind, what string) error {
	if st := l.State(); st != StateReady {
		return &EngineError{
			Kind:    kind,
			Message: what + "未处于可用状态: " + st.String(),
		}
	}
	return nil
}

// BeginDispose 从 Ready/Initing 切换到 Disposing。
// 已关闭时返回 false 且无错误，调用方据此实现幂等释放。
func (l *Lifecycle) BeginDispose(what string) (bool, error) {
	st := l.State()
	if st == StateClosed {
		return false, nil
	}
	if st != StateReady && st != StateIniting {
		return false, &EngineError{
			Kind:    ErrRuntime,
			Message: what + "未处于可释放状态",
		}
	}
	if !l.CompareAndSwap(st, StateDisposing) {
		return false, &EngineError{
			Kind:    ErrRuntime,
			Message: what + "释放状态切换失败",
		}
	}
	return true, nil
}
