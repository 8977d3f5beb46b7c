package treevm

import (
	"github.com/sonwh98/yin/internal/yin/ast"
	"github.com/sonwh98/yin/internal/yin/value"
)

// frame is one link of the tree-walking VM's continuation chain. Each
// concrete frame remembers what to do with the value the VM is about
// to produce and holds the rest of the continuation in next.
type frame interface{ isFrame() }

type operatorFrame struct {
	Operands []ast.Node
	Env      value.Env
	Next     frame
}

type operandFrame struct {
	Fn        value.Value
	Collected []value.Value
	Remaining []ast.Node
	Env       value.Env
	Next      frame
}

type testFrame struct {
	Consequent ast.Node
	Alternate  ast.Node
	Env        value.Env
	Next       frame
}

type storePutFrame struct {
	Key  string
	Next frame
}

type streamPutTargetFrame struct {
	ValNode ast.Node
	Env     value.Env
	Next    frame
}

type streamPutValFrame struct {
	Target value.Value
	Next   frame
}

type streamCursorSourceFrame struct {
	Next frame
}

type streamNextCursorFrame struct {
	Next frame
}

type streamCloseSourceFrame struct {
	Next frame
}

func (operatorFrame) isFrame()           {}
func (operandFrame) isFrame()            {}
func (testFrame) isFrame()               {}
func (storePutFrame) isFrame()           {}
func (streamPutTargetFrame) isFrame()    {}
func (streamPutValFrame) isFrame()       {}
func (streamCursorSourceFrame) isFrame() {}
func (streamNextCursorFrame) isFrame()   {}
func (streamCloseSourceFrame) isFrame()  {}
