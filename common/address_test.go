package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEthAddress(t *testing.T) {
	assert.True(t, IsValidEthAddress("0x71C7656EC7ab88b098defB751B7401B5f6d8976F"))
	assert.True(t, IsValidEthAddress(RandEthAddress().Hex()))

	// zero address is not a valid recipient
	assert.False(t, IsValidEthAddress("0x0000000000000000000000000000000000000000"))
	// too short
	assert.False(t, IsValidEthAddress("0x71C7656EC7ab88b098defB751B7401B5f6d89"))
	// not hex
	assert.False(t, IsValidEthAddress("0xZZC7656EC7ab88b098defB751B7401B5f6d8976F"))
	assert.False(t, IsValidEthAddress(""))
	assert.False(t, IsValidEthAddress("bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"))
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "0xabcd", Shorten("0xabcd", 4))
	assert.Equal(t, "0x1234...cdef", Shorten("0x1234567890abcdef", 4))
}
