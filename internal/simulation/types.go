// Package simulation translates the wire request/response DTOs
// SPEC_FULL.md §3 names into calls against an internal/evmi.Instance and
// shapes the result back into SimulationResponse.
package simulation

// AccessListEntry mirrors one EIP-2930 access list entry on the wire.
type AccessListEntry struct {
	Address     string   `json:"address"`
	StorageKeys []string `json:"storageKeys"`
}

// StorageOverride carries at most one of Full or Diff, per invariant I4.
type StorageOverride struct {
	Full map[string]string `json:"state,omitempty"`
	Diff map[string]string `json:"stateDiff,omitempty"`
}

// StateOverride is any subset of balance/nonce/code/storage for one address.
type StateOverride struct {
	Balance *string          `json:"balance,omitempty"`
	Nonce   *uint64          `json:"nonce,omitempty"`
	Code    *string          `json:"code,omitempty"`
	Storage *StorageOverride `json:"storage,omitempty"`
}

// Request is SPEC_FULL.md §3's SimulationRequest.
type Request struct {
	ChainID               uint64                   `json:"chainId"`
	From                  string                   `json:"from"`
	To                    *string                  `json:"to"`
	Data                  *string                  `json:"data,omitempty"`
	GasLimit              uint64                   `json:"gasLimit"`
	Value                 *string                  `json:"value,omitempty"`
	AccessList            []AccessListEntry        `json:"accessList,omitempty"`
	BlockNumber           *uint64                  `json:"blockNumber,omitempty"`
	StateOverrides        map[string]StateOverride `json:"stateOverrides,omitempty"`
	FormatTrace           bool                     `json:"formatTrace,omitempty"`
	TransactionBlockIndex *uint64                  `json:"transactionBlockIndex,omitempty"`
}

// StatefulRequest is SPEC_FULL.md §3's StatefulSimulationRequest — the body
// of POST /simulate-stateful that provisions a new session.
type StatefulRequest struct {
	ChainID     uint64  `json:"chainId"`
	GasLimit    uint64  `json:"gasLimit"`
	BlockNumber *uint64 `json:"blockNumber,omitempty"`
}

// CallTrace is one flattened call-trace frame on the wire.
type CallTrace struct {
	CallType string `json:"callType"`
	From     string `json:"from"`
	To       string `json:"to"`
	Value    string `json:"value"`
}

// Log is one EVM log on the wire.
type Log struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// Response is SPEC_FULL.md §3's SimulationResponse.
type Response struct {
	SimulationID   uint64      `json:"simulationId"`
	GasUsed        uint64      `json:"gasUsed"`
	BlockNumber    uint64      `json:"blockNumber"`
	Success        bool        `json:"success"`
	Trace          []CallTrace `json:"trace"`
	FormattedTrace *string     `json:"formattedTrace,omitempty"`
	Logs           []Log       `json:"logs"`
	ExitReason     string      `json:"exitReason"`
	ReturnData     string      `json:"returnData"`
}

// Response.Success and Response.ExitReason are derived straight from
// internal/evmi.CallResult (classifyExit owns the one copy of P1's
// stop/return/selfdestruct-vs-revert-vs-fault classification); this package
// does not re-derive success from the exit reason string.
