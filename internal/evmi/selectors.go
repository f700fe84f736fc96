package evmi

import "encoding/hex"

// fourByteCache is the local signature cache spec.md §4.2 calls for ("a
// local four-byte signature cache if available"): the handful of selectors
// common enough to show up in nearly every trace, so a trace reads as
// "transfer(address,uint256)" instead of "0xa9059cbb" without requiring a
// network round trip or a vendored four-byte database.
var fourByteCache = map[string]string{
	"a9059cbb": "transfer(address,uint256)",
	"23b872dd": "transferFrom(address,address,uint256)",
	"095ea7b3": "approve(address,uint256)",
	"70a08231": "balanceOf(address)",
	"dd62ed3e": "allowance(address,address)",
	"18160ddd": "totalSupply()",
	"40c10f19": "mint(address,uint256)",
	"42842e0e": "safeTransferFrom(address,address,uint256)",
	"d0e30db0": "deposit()",
	"2e1a7d4d": "withdraw(uint256)",
	"128acb08": "swap(address,bool,int256,uint160,bytes)",
	"38ed1739": "swapExactTokensForTokens(uint256,uint256,address[],address,uint256)",
}

// DecodeSelector returns the known signature for input's leading four bytes
// against the local cache, or "" if input is too short or the selector is
// unknown. Callers degrade a miss to the raw selector hex themselves.
func DecodeSelector(input []byte) string {
	if len(input) < 4 {
		return ""
	}
	return fourByteCache[hex.EncodeToString(input[:4])]
}

// SelectorHex renders input's leading four bytes as "0x########", or "0x"
// for calldata shorter than a selector (a plain value transfer).
func SelectorHex(input []byte) string {
	if len(input) < 4 {
		return "0x"
	}
	return "0x" + hex.EncodeToString(input[:4])
}
