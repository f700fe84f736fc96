package biginteger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexAndDecimalAgree(t *testing.T) {
	hex, err := Parse("0x3e8")
	require.NoError(t, err)
	dec, err := Parse("1000")
	require.NoError(t, err)
	assert.True(t, hex.Eq(dec))
}

func TestParseRejectsEmpty(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)
}

func TestParseRejectsNonDigits(t *testing.T) {
	_, err := Parse("12z4")
	assert.Error(t, err)
}

func TestParseRejectsOverflow(t *testing.T) {
	_, err := Parse("0x1" + strings.Repeat("0", 64))
	assert.Error(t, err)
}
