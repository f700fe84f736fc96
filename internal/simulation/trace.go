package simulation

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/EnsoFinance/temper/internal/evmi"
)

// flattenTrace converts the pre-order-DFS frames internal/evmi already
// linearizes into the wire CallTrace shape (SPEC_FULL.md §4.3 step 4).
func flattenTrace(frames []evmi.Frame) []CallTrace {
	out := make([]CallTrace, 0, len(frames))
	for _, f := range frames {
		value := "0x0"
		if f.Value != nil {
			value = hexutil.EncodeBig(f.Value)
		}
		out = append(out, CallTrace{
			CallType: f.CallType,
			From:     f.From.Hex(),
			To:       f.To.Hex(),
			Value:    value,
		})
	}
	return out
}

// formatTrace produces the best-effort human-readable trace SPEC_FULL.md
// §4.2 describes: each frame rendered as "[TYPE] from -> to selector (n bytes
// in, g gas)", indented by depth, followed by a "reverted: <error>" line for
// a reverted frame. The call target is decoded against (a) the local
// four-byte signature cache (internal/evmi.DecodeSelector) and (b) the
// optional explorer-backed identifier, if ident is non-nil; a miss on either
// degrades gracefully to the raw selector hex / bare address, never to an
// error.
func formatTrace(frames []evmi.Frame, ident *evmi.SourceIdentifier) string {
	var b strings.Builder
	for _, f := range frames {
		indent := strings.Repeat("  ", f.Depth)

		to := f.To.Hex()
		if name := ident.Identify(context.Background(), f.To); name != "" {
			to = fmt.Sprintf("%s (%s)", to, name)
		}

		sig := evmi.DecodeSelector(f.Input)
		if sig == "" {
			sig = evmi.SelectorHex(f.Input)
		}

		fmt.Fprintf(&b, "%s[%s] %s -> %s %s (%d bytes in, %d gas)\n",
			indent, f.CallType, f.From.Hex(), to, sig, len(f.Input), f.GasUsed)
		if f.Reverted {
			fmt.Fprintf(&b, "%s  reverted: %s\n", indent, f.Error)
		}
	}
	return b.String()
}
