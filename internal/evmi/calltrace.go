package evmi

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/vm"
)

// Frame is one entry of a linearized call trace: SPEC_FULL.md §4.3 step 4
// asks for the call tree flattened by pre-order depth-first traversal, the
// order a human reading a stack trace would expect (a call's own frame
// appears before any of its children).
type Frame struct {
	Depth    int
	CallType string
	From     common.Address
	To       common.Address
	Input    []byte
	Value    *big.Int
	GasUsed  uint64
	Output   []byte
	Reverted bool
	Error    string
}

type callNode struct {
	frame    Frame
	children []*callNode
}

// callTracer accumulates OnEnter/OnExit events into a call tree via a stack
// keyed by depth, then linearizes it on demand.
type callTracer struct {
	root  *callNode
	stack []*callNode
}

func newCallTracer() *callTracer {
	return &callTracer{}
}

// Hooks returns the tracing.Hooks vm.Config.Tracer expects.
func (t *callTracer) Hooks() *tracing.Hooks {
	return &tracing.Hooks{
		OnEnter: t.onEnter,
		OnExit:  t.onExit,
	}
}

func (t *callTracer) onEnter(depth int, typ byte, from, to common.Address, input []byte, gas uint64, value *big.Int) {
	node := &callNode{frame: Frame{
		Depth:    depth,
		CallType: vm.OpCode(typ).String(),
		From:     from,
		To:       to,
		Input:    append([]byte(nil), input...),
		Value:    value,
	}}
	if len(t.stack) == 0 {
		t.root = node
	} else {
		parent := t.stack[len(t.stack)-1]
		parent.children = append(parent.children, node)
	}
	t.stack = append(t.stack, node)
}

func (t *callTracer) onExit(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
	if len(t.stack) == 0 {
		return
	}
	node := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	node.frame.Output = append([]byte(nil), output...)
	node.frame.GasUsed = gasUsed
	node.frame.Reverted = reverted
	if err != nil {
		node.frame.Error = err.Error()
	}
}

// Linearize flattens the call tree in pre-order: a frame is emitted, then
// each of its children recursively, left to right.
func (t *callTracer) Linearize() []Frame {
	if t.root == nil {
		return nil
	}
	var out []Frame
	var walk func(*callNode)
	walk = func(n *callNode) {
		out = append(out, n.frame)
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	return out
}
