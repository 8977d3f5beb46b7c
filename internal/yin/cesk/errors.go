package cesk

import (
	"fmt"

	"github.com/sonwh98/yin/internal/yin/value"
)

// FatalError aborts the current step with the error kind, the
// offending entity id or instruction pointer, and a detail message.
// No fatal error is recovered inside a VM; the host may catch and
// decide. Fatal and the constructors below leave the Control and
// TopCont snapshot fields nil, and no backend fills them in.
type FatalError struct {
	Kind    string
	Offset  int64 // offending entity id or instruction pointer
	Detail  string
	Control interface{} // snapshot of current control
	TopCont interface{} // snapshot of top of continuation
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s at %d: %s", e.Kind, e.Offset, e.Detail)
}

func Fatal(kind string, offset int64, detail string) *FatalError {
	return &FatalError{Kind: kind, Offset: offset, Detail: detail}
}

// ApplyNonFunction reports an attempt to call a non-callable value.
func ApplyNonFunction(offset int64, v value.Value) *FatalError {
	return Fatal("apply-non-function", offset, fmt.Sprintf("value of kind %s is not callable: %s", v.Kind, v))
}

// UnknownNodeType reports a yin/type the VM does not implement.
func UnknownNodeType(entity int64, kind string) *FatalError {
	return Fatal("unknown-node-type", entity, fmt.Sprintf("unknown node type %q", kind))
}

// UnknownOpcode reports a bytecode opcode the VM does not implement.
func UnknownOpcode(ip int64, opcode int) *FatalError {
	return Fatal("unknown-opcode", ip, fmt.Sprintf("unknown opcode %d", opcode))
}

// UnknownEffectTag reports an effect descriptor tag no handler
// recognises.
func UnknownEffectTag(offset int64, tag string) *FatalError {
	return Fatal("unknown-effect-tag", offset, fmt.Sprintf("unknown effect tag %q", tag))
}

// PutOnClosedStream reports a stream/put on a stream that is closed.
func PutOnClosedStream(offset int64, streamID int64) *FatalError {
	return Fatal("put-on-closed-stream", offset, fmt.Sprintf("stream %d is closed", streamID))
}
