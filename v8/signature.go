package v8

// Signature 记录回调的合法接收者类型，校验不在本层进行。
type Signature struct {
	iso      *Isolate
	self     ref
	receiver ref
	accessor bool
}

// NewSignature 创建以 receiver 为接收者类型的签名。
func NewSignature(iso *Isolate, receiver *FunctionTemplate) *Signature {
	return newSignature(iso, receiver, false)
}

// NewAccessorSignature 创建访问器使用的签名，语义与 Signature 相同。
func NewAccessorSignature(iso *Isolate, receiver *FunctionTemplate) *Signature {
	return newSignature(iso, receiver, true)
}

func newSignature(iso *Isolate, receiver *FunctionTemplate, accessor bool) *Signature {
	sig := &Signature{iso: iso, accessor: accessor}
	if receiver != nil && receiver.iso == iso {
		sig.receiver = receiver.self
	}
	sig.self = iso.arena.add(arenaEntry{kind: kindSignature, sig: sig})
	return sig
}

// Receiver 返回接收者模板。
func (s *Signature) Receiver() *FunctionTemplate {
	if !s.receiver.valid() {
		return nil
	}
	ft, err := s.iso.arena.function(s.receiver)
	if err != nil {
		return nil
	}
	return ft
}

// IsAccessor 报告签名是否由 NewAccessorSignature 创建。
func (s *Signature) IsAccessor() bool {
	return s.accessor
}
