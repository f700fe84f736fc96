package evmi

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallTracerLinearizesPreOrder(t *testing.T) {
	tracer := newCallTracer()
	a := common.HexToAddress("0xa")
	b := common.HexToAddress("0xb")
	c := common.HexToAddress("0xc")

	tracer.onEnter(0, byte(0xf1), a, b, []byte{0x01}, 100000, big.NewInt(0))
	tracer.onEnter(1, byte(0xf1), b, c, []byte{0x02}, 50000, big.NewInt(0))
	tracer.onExit(1, []byte{0xaa}, 1000, nil, false)
	tracer.onExit(0, []byte{0xbb}, 2000, nil, false)

	frames := tracer.Linearize()
	require.Len(t, frames, 2)
	assert.Equal(t, a, frames[0].From)
	assert.Equal(t, b, frames[0].To)
	assert.Equal(t, b, frames[1].From)
	assert.Equal(t, c, frames[1].To)
	assert.Equal(t, uint64(1000), frames[1].GasUsed)
}

func TestCallTracerEmptyWhenNoCalls(t *testing.T) {
	tracer := newCallTracer()
	assert.Nil(t, tracer.Linearize())
}
