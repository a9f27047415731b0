package common

import (
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// IsValidEthAddress reports whether the string is a canonical 0x-prefixed,
// 20-byte hex address and not the zero address.
func IsValidEthAddress(address string) bool {
	if !ethcommon.IsHexAddress(address) {
		return false
	}
	return ethcommon.HexToAddress(address) != (ethcommon.Address{})
}

func IsZeroAddress(address ethcommon.Address) bool {
	return address == (ethcommon.Address{})
}
