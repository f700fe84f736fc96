// Package apperror implements the rejection taxonomy described in the
// simulation engine's error handling design: a fixed set of machine-readable
// wire codes, each pinned to one HTTP status.
package apperror

import (
	"fmt"
	"net/http"
	"strings"
)

// Code is a stable, machine-readable wire error code.
type Code string

const (
	CodeNotFound             Code = "NOT_FOUND"
	CodeStateNotFound        Code = "STATE_NOT_FOUND"
	CodeChainIDNotSupported  Code = "CHAIN_ID_NOT_SUPPORTED"
	CodeIncorrectChainID     Code = "INCORRECT_CHAIN_ID"
	CodeMultipleChainIDs     Code = "MULTIPLE_CHAIN_IDS"
	CodeMultipleBlockNumbers Code = "MULTIPLE_BLOCK_NUMBERS" // reserved, never returned; see SPEC_FULL.md §7
	CodeInvalidBlockNumbers  Code = "INVALID_BLOCK_NUMBERS"
	CodeOverrideError        Code = "OVERRIDE_ERROR"
	CodeOutOfGas             Code = "OUT_OF_GAS"
	CodeEVMError             Code = "EVM_ERROR"
	CodeMethodNotAllowed     Code = "METHOD_NOT_ALLOWED"
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeUnhandledRejection   Code = "UNHANDLED_REJECTION"
)

var statusByCode = map[Code]int{
	CodeNotFound:             http.StatusNotFound,
	CodeStateNotFound:        http.StatusNotFound,
	CodeChainIDNotSupported:  http.StatusBadRequest,
	CodeIncorrectChainID:     http.StatusBadRequest,
	CodeMultipleChainIDs:     http.StatusBadRequest,
	CodeMultipleBlockNumbers: http.StatusBadRequest,
	CodeInvalidBlockNumbers:  http.StatusBadRequest,
	CodeOverrideError:        http.StatusInternalServerError,
	CodeOutOfGas:             http.StatusBadRequest,
	CodeEVMError:             http.StatusInternalServerError,
	CodeMethodNotAllowed:     http.StatusMethodNotAllowed,
	CodeUnauthorized:         http.StatusUnauthorized,
	CodeUnhandledRejection:   http.StatusInternalServerError,
}

// Rejection is the one error type every layer of the engine returns for a
// condition the HTTP surface must render as a non-2xx response. It carries
// its own HTTP status so the mapper never has to re-derive one.
type Rejection struct {
	Code    Code
	Status  int
	Message string // wire message; defaults to string(Code) unless overridden
	cause   error
}

func (r *Rejection) Error() string {
	// A bad-request Message already embeds its cause (see NewBadRequest).
	if r.cause != nil && r.Code != "" {
		return fmt.Sprintf("%s: %v", r.Message, r.cause)
	}
	return r.Message
}

func (r *Rejection) Unwrap() error { return r.cause }

// New builds a Rejection for a fixed taxonomy code, wrapping an optional
// underlying cause for logging (the cause is never echoed on the wire except
// for BadRequest, see NewBadRequest).
func New(code Code, cause error) *Rejection {
	return &Rejection{
		Code:    code,
		Status:  statusByCode[code],
		Message: string(code),
		cause:   cause,
	}
}

// NewBadRequest renders "BAD REQUEST: <cause>", the shape §4.6/§7 require for
// JSON decoding failures and malformed field values (S4).
func NewBadRequest(cause error) *Rejection {
	return &Rejection{
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("BAD REQUEST: %v", cause),
		cause:   cause,
	}
}

// Unhandled wraps any error the call sites did not anticipate into the
// catch-all 500 the spec mandates for everything else.
func Unhandled(cause error) *Rejection {
	return New(CodeUnhandledRejection, cause)
}

// ClassifyEVMError distinguishes the one interpreter fault the taxonomy
// breaks out specially — a call whose gas cost exceeds its gas limit — from
// every other interpreter-level failure. Reverts, and a gas limit that
// simply can't cover intrinsic gas, never reach here; those are a 200
// response (§7/§8's S2), not a Rejection.
func ClassifyEVMError(cause error) *Rejection {
	if cause != nil && strings.Contains(cause.Error(), "CallGasCostMoreThanGasLimit") {
		return New(CodeOutOfGas, cause)
	}
	return New(CodeEVMError, cause)
}
