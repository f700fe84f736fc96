package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnsoFinance/temper/internal/apperror"
)

func TestDecodeAddressAccepts20Bytes(t *testing.T) {
	addr, err := decodeAddress("from", "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")
	require.NoError(t, err)
	assert.Equal(t, "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", addr.Hex())
}

func TestDecodeAddressRejectsShortHex(t *testing.T) {
	// One hex character short of 20 bytes (spec.md §8's S4).
	_, err := decodeAddress("from", "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA604")
	require.Error(t, err)
	var rej *apperror.Rejection
	require.ErrorAs(t, err, &rej)
	assert.Contains(t, rej.Message, "BAD REQUEST")
	assert.Contains(t, rej.Message, "20 bytes")
}

func TestDecodeAddressRejectsNonHex(t *testing.T) {
	_, err := decodeAddress("from", "0xzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz")
	require.Error(t, err)
	var rej *apperror.Rejection
	require.ErrorAs(t, err, &rej)
}
