package v8

import "github.com/dop251/goja"

// rootID 指向根表中的一个槽位，槽位复用时 gen 递增，旧 ID 随之失效。
type rootID struct {
	slot uint32
	gen  uint32
}

type rootSlot struct {
	v    goja.Value
	gen  uint32
	live bool
}

// rootTable 是隔离区范围内的 GC 根集合：登记在表中的值始终保持强引用。
type rootTable struct {
	slots []rootSlot
	free  []uint32
	live  int
}

func (t *rootTable) protect(v goja.Value) rootID {
	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, rootSlot{})
		idx = uint32(len(t.slots) - 1)
	}
	s := &t.slots[idx]
	s.v = v
	s.live = true
	t.live++
	return rootID{slot: idx + 1, gen: s.gen}
}

// unprotect 释放根，ID 无效或已释放时返回 false。
func (t *rootTable) unprotect(id rootID) bool {
	if id.slot == 0 || int(id.slot) > len(t.slots) {
		return false
	}
	s := &t.slots[id.slot-1]
	if !s.live || s.gen != id.gen {
		return false
	}
	s.v = nil
	s.live = false
	s.gen++
	t.free = append(t.free, id.slot-1)
	t.live--
	return true
}

func (t *rootTable) get(id rootID) (goja.Value, bool) {
	if id.slot == 0 || int(id.slot) > len(t.slots) {
		return nil, false
	}
	s := t.slots[id.slot-1]
	if !s.live || s.gen != id.gen {
		return nil, false
	}
	return s.v, true
}

func (t *rootTable) len() int {
	return t.live
}

func (t *rootTable) reset() {
	t.slots = nil
	t.free = nil
	t.live = 0
}
