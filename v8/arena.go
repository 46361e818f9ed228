package v8

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/LiuQiulin/LiquidCore/jsengine"
)

type templateKind uint8

const (
	kindFunction templateKind = iota + 1
	kindObject
	kindSignature
)

func (k templateKind) String() string {
	switch k {
	case kindFunction:
		return "FunctionTemplate"
	case kindObject:
		return "ObjectTemplate"
	case kindSignature:
		return "Signature"
	default:
		return "unknown"
	}
}

// ref 是隔离区模板表中的位置，gen 与隔离区代数不一致时失效。零值表示空引用。
type ref struct {
	index uint32
	gen   uint32
}

func (r ref) valid() bool { return r.index != 0 }

// arenaEntry 是带标签的模板变体，只有与 kind 对应的字段非空。
type arenaEntry struct {
	kind templateKind
	fn   *FunctionTemplate
	obj  *ObjectTemplate
	sig  *Signature
}

// arena 按隔离区统一持有所有模板，模板不单独释放，隔离区销毁时整体回收。
type arena struct {
	gen     uint32
	entries []arenaEntry
}

func newArena() *arena {
	return &arena{gen: 1}
}

func (a *arena) add(e arenaEntry) ref {
	a.entries = append(a.entries, e)
	return ref{index: uint32(len(a.entries)), gen: a.gen}
}

func (a *arena) lookup(r ref, kind templateKind) (arenaEntry, error) {
	if !r.valid() {
		return arenaEntry{}, &jsengine.EngineError{Kind: jsengine.ErrInternal, Message: "空模板引用"}
	}
	if r.gen != a.gen || int(r.index) > len(a.entries) {
		return arenaEntry{}, &jsengine.EngineError{
			Kind:    jsengine.ErrRuntime,
			Message: fmt.Sprintf("模板引用已失效: index=%d gen=%d current=%d", r.index, r.gen, a.gen),
		}
	}
	e := a.entries[r.index-1]
	if e.kind != kind {
		return arenaEntry{}, &jsengine.EngineError{
			Kind:    jsengine.ErrInternal,
			Message: fmt.Sprintf("模板类型不匹配: got=%s want=%s", e.kind, kind),
		}
	}
	return e, nil
}

func (a *arena) function(r ref) (*FunctionTemplate, error) {
	e, err := a.lookup(r, kindFunction)
	return e.fn, err
}

func (a *arena) object(r ref) (*ObjectTemplate, error) {
	e, err := a.lookup(r, kindObject)
	return e.obj, err
}

func (a *arena) signature(r ref) (*Signature, error) {
	e, err := a.lookup(r, kindSignature)
	return e.sig, err
}

func (a *arena) alive(r ref) bool {
	return r.valid() && r.gen == a.gen && int(r.index) <= len(a.entries)
}

// functions 返回当前代的全部函数模板。
func (a *arena) functions() []*FunctionTemplate {
	return lo.FilterMap(a.entries, func(e arenaEntry, _ int) (*FunctionTemplate, bool) {
		return e.fn, e.kind == kindFunction
	})
}

func (a *arena) len() int {
	return len(a.entries)
}

// reset 整体回收，旧引用全部失效。
func (a *arena) reset() {
	a.entries = nil
	a.gen++
}
