package graphvm

import "github.com/sonwh98/yin/internal/yin/value"

// frame is one link of the datom-graph VM's explicit frame stack,
// mirroring treevm.frame but addressing children by entity id rather
// than by ast.Node reference, since control here is always an id into
// a shared ast.DatomSet.
type frame interface{ isFrame() }

type operatorFrame struct {
	OperandIDs []int64
	Env        value.Env
	Next       frame
}

type operandFrame struct {
	Fn        value.Value
	Collected []value.Value
	Remaining []int64
	Env       value.Env
	Next      frame
}

type testFrame struct {
	ConsID int64
	AltID  int64
	Env    value.Env
	Next   frame
}

type storePutFrame struct {
	Key  string
	Next frame
}

type streamPutTargetFrame struct {
	ValID int64
	Env   value.Env
	Next  frame
}

type streamPutValFrame struct {
	Target value.Value
	Next   frame
}

type streamCursorSourceFrame struct{ Next frame }
type streamNextCursorFrame struct{ Next frame }
type streamCloseSourceFrame struct{ Next frame }

func (operatorFrame) isFrame()           {}
func (operandFrame) isFrame()            {}
func (testFrame) isFrame()               {}
func (storePutFrame) isFrame()           {}
func (streamPutTargetFrame) isFrame()    {}
func (streamPutValFrame) isFrame()       {}
func (streamCursorSourceFrame) isFrame() {}
func (streamNextCursorFrame) isFrame()   {}
func (streamCloseSourceFrame) isFrame()  {}
