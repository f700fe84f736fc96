package bundle

import (
	"testing"

	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnsoFinance/temper/internal/apperror"
	"github.com/EnsoFinance/temper/internal/evmi"
	"github.com/EnsoFinance/temper/internal/forkdb"
	"github.com/EnsoFinance/temper/internal/simulation"
)

func newTestInstance() *evmi.Instance {
	return evmi.New(forkdb.New(nil, nil), evmi.Config{ChainID: 1, ChainConfig: params.MainnetChainConfig, BlockNumber: 100, Timestamp: 1000, GasLimit: 30_000_000})
}

func req(chainID uint64, blockNumber *uint64) simulation.Request {
	return simulation.Request{
		ChainID:     chainID,
		From:        "0x0000000000000000000000000000000000000001",
		To:          strPtr("0x0000000000000000000000000000000000000002"),
		GasLimit:    21000,
		BlockNumber: blockNumber,
	}
}

func strPtr(s string) *string { return &s }
func u64Ptr(n uint64) *uint64 { return &n }

func TestRunRejectsMixedChainIDs(t *testing.T) {
	inst := newTestInstance()
	reqs := []simulation.Request{req(1, nil), req(2, nil)}

	_, err := Run(inst, reqs)
	require.Error(t, err)
	var rej *apperror.Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, apperror.CodeMultipleChainIDs, rej.Code)
}

func TestRunRejectsBlockRegression(t *testing.T) {
	inst := newTestInstance()
	reqs := []simulation.Request{req(1, u64Ptr(100)), req(1, u64Ptr(50))}

	_, err := Run(inst, reqs)
	require.Error(t, err)
	var rej *apperror.Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, apperror.CodeInvalidBlockNumbers, rej.Code)
}

func TestRunAdvancesBlockAndTimestamp(t *testing.T) {
	inst := newTestInstance()
	reqs := []simulation.Request{req(1, u64Ptr(100)), req(1, u64Ptr(105))}

	responses, err := Run(inst, reqs)
	require.NoError(t, err)
	require.Len(t, responses, 2)
	assert.Equal(t, uint64(100), responses[0].BlockNumber)
	assert.Equal(t, uint64(105), responses[1].BlockNumber)
	assert.Equal(t, uint64(105), inst.BlockNumber())
	assert.Equal(t, uint64(1012), inst.Timestamp())
}

func TestRunEmptyReturnsNoResponses(t *testing.T) {
	inst := newTestInstance()
	responses, err := Run(inst, nil)
	require.NoError(t, err)
	assert.Nil(t, responses)
}
