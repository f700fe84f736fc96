package forkurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnsoFinance/temper/internal/apperror"
)

func TestResolveKnownChain(t *testing.T) {
	url, err := Resolve(1, "")
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}

func TestResolveUnknownChainWithoutOverride(t *testing.T) {
	_, err := Resolve(999999, "")
	require.Error(t, err)
	var rej *apperror.Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, apperror.CodeChainIDNotSupported, rej.Code)
}

func TestOverrideWinsForUnknownChain(t *testing.T) {
	url, err := Resolve(999999, "https://custom.example/rpc")
	require.NoError(t, err)
	assert.Equal(t, "https://custom.example/rpc", url)
}

func TestOverrideWinsOverDefault(t *testing.T) {
	url, err := Resolve(1, "https://custom.example/rpc")
	require.NoError(t, err)
	assert.Equal(t, "https://custom.example/rpc", url)
}
