package simulation

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/EnsoFinance/temper/internal/apperror"
	"github.com/EnsoFinance/temper/internal/biginteger"
	"github.com/EnsoFinance/temper/internal/evmi"
	"github.com/EnsoFinance/temper/internal/forkdb"
)

// Run implements SPEC_FULL.md §4.3 steps 1-5: apply overrides, build the
// call descriptor, invoke call_raw or call_raw_committing, flatten the call
// trace and shape the response.
func Run(inst *evmi.Instance, req Request, commit bool) (*Response, error) {
	if inst.ChainID() != req.ChainID {
		return nil, apperror.New(apperror.CodeIncorrectChainID, fmt.Errorf("evm chain id %d does not match request chain id %d", inst.ChainID(), req.ChainID))
	}

	if req.TransactionBlockIndex != nil && req.BlockNumber != nil {
		if err := replayBlockPrefix(inst, *req.BlockNumber, *req.TransactionBlockIndex); err != nil {
			return nil, err
		}
	}

	overrides, err := decodeOverrides(req.StateOverrides)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if err := forkdb.ApplyOverrides(inst.DB(), overrides); err != nil {
			return nil, err
		}
	}

	params, err := buildCallParams(req)
	if err != nil {
		return nil, err
	}

	var result *evmi.CallResult
	if commit {
		result, err = inst.CallRawCommitting(params)
	} else {
		result, err = inst.CallRaw(params)
	}
	if err != nil {
		return nil, err
	}

	resp := &Response{
		SimulationID: 1,
		GasUsed:      result.GasUsed,
		BlockNumber:  inst.BlockNumber(),
		Success:      !result.Reverted,
		Trace:        flattenTrace(result.Trace),
		Logs:         encodeLogs(result.Logs),
		ExitReason:   result.ExitReason,
		ReturnData:   hexutil.Encode(result.ReturnData),
	}
	if req.FormatTrace {
		formatted := formatTrace(result.Trace, inst.Identifier())
		resp.FormattedTrace = &formatted
	}
	return resp, nil
}

func buildCallParams(req Request) (evmi.CallParams, error) {
	from, err := decodeAddress("from", req.From)
	if err != nil {
		return evmi.CallParams{}, err
	}
	var to *common.Address
	if req.To != nil && *req.To != "" {
		addr, err := decodeAddress("to", *req.To)
		if err != nil {
			return evmi.CallParams{}, err
		}
		to = &addr
	}

	var input []byte
	if req.Data != nil && *req.Data != "" {
		decoded, err := hexutil.Decode(*req.Data)
		if err != nil {
			return evmi.CallParams{}, apperror.NewBadRequest(fmt.Errorf("data: %w", err))
		}
		input = decoded
	}

	value := new(uint256.Int)
	if req.Value != nil && *req.Value != "" {
		parsed, err := biginteger.Parse(*req.Value)
		if err != nil {
			return evmi.CallParams{}, apperror.NewBadRequest(fmt.Errorf("value: %w", err))
		}
		value = parsed
	}

	return evmi.CallParams{
		From:     from,
		To:       to,
		Input:    input,
		Value:    value,
		GasLimit: req.GasLimit,
	}, nil
}

// decodeAddress rejects anything but exactly 20 bytes of hex, unlike
// common.HexToAddress (which silently left-pads or truncates a malformed
// string). spec.md §8's S4 depends on the exact "20 bytes" wording.
func decodeAddress(field, s string) (common.Address, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	trimmed = strings.TrimPrefix(trimmed, "0X")
	if len(trimmed) != 2*common.AddressLength {
		return common.Address{}, apperror.NewBadRequest(fmt.Errorf("%s: must be exactly 20 bytes (40 hex characters), got %d", field, len(trimmed)))
	}
	if _, err := hex.DecodeString(trimmed); err != nil {
		return common.Address{}, apperror.NewBadRequest(fmt.Errorf("%s: %w", field, err))
	}
	return common.HexToAddress(s), nil
}

func decodeOverrides(in map[string]StateOverride) (map[common.Address]forkdb.Override, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[common.Address]forkdb.Override, len(in))
	for addrStr, ov := range in {
		addr := common.HexToAddress(addrStr)
		decoded := forkdb.Override{}

		if ov.Balance != nil {
			bal, err := biginteger.Parse(*ov.Balance)
			if err != nil {
				return nil, apperror.NewBadRequest(fmt.Errorf("stateOverrides[%s].balance: %w", addrStr, err))
			}
			decoded.Balance = bal
		}
		if ov.Nonce != nil {
			decoded.Nonce = ov.Nonce
		}
		if ov.Code != nil {
			code, err := hexutil.Decode(*ov.Code)
			if err != nil {
				return nil, apperror.NewBadRequest(fmt.Errorf("stateOverrides[%s].code: %w", addrStr, err))
			}
			decoded.Code = code
		}
		if ov.Storage != nil {
			if len(ov.Storage.Full) > 0 && len(ov.Storage.Diff) > 0 {
				return nil, apperror.New(apperror.CodeOverrideError, fmt.Errorf("stateOverrides[%s]: storage sets both state and stateDiff", addrStr))
			}
			if len(ov.Storage.Full) > 0 {
				full, err := decodeStorageMap(ov.Storage.Full)
				if err != nil {
					return nil, apperror.NewBadRequest(fmt.Errorf("stateOverrides[%s].state: %w", addrStr, err))
				}
				decoded.StateFull = full
			}
			if len(ov.Storage.Diff) > 0 {
				diff, err := decodeStorageMap(ov.Storage.Diff)
				if err != nil {
					return nil, apperror.NewBadRequest(fmt.Errorf("stateOverrides[%s].stateDiff: %w", addrStr, err))
				}
				decoded.StateDiff = diff
			}
		}
		out[addr] = decoded
	}
	return out, nil
}

func decodeStorageMap(in map[string]string) (map[common.Hash]common.Hash, error) {
	out := make(map[common.Hash]common.Hash, len(in))
	for k, v := range in {
		val, err := biginteger.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("slot %s: %w", k, err)
		}
		out[common.HexToHash(k)] = common.Hash(val.Bytes32())
	}
	return out, nil
}

func encodeLogs(logs []*types.Log) []Log {
	out := make([]Log, 0, len(logs))
	for _, l := range logs {
		topics := make([]string, len(l.Topics))
		for i, t := range l.Topics {
			topics[i] = t.Hex()
		}
		out = append(out, Log{
			Address: l.Address.Hex(),
			Topics:  topics,
			Data:    hexutil.Encode(l.Data),
		})
	}
	return out
}
