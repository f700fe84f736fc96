// Package session implements the Session Registry (SPEC_FULL.md §4.5): a
// concurrent mapping from opaque session id to a serialised-access handle
// over an EVM instance.
//
// The two-layer split — a concurrent map controlling entry lifetime, and a
// per-entry mutex controlling EVM access — is the Go restatement of
// revm_bridge/handles.go's handleMap/handleSeq pattern, with the uintptr FFI
// handle replaced by a uuid.UUID (there is no cgo boundary to cross here)
// and the bare *stateDBImpl replaced by a *Handle wrapping *evmi.Instance in
// its own *sync.Mutex.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/EnsoFinance/temper/internal/apperror"
	"github.com/EnsoFinance/temper/internal/evmi"
)

// Handle serialises access to one session's EVM instance (invariant I1: at
// most one simulation executes against a stored session's EVM at a time).
type Handle struct {
	mu   sync.Mutex
	inst *evmi.Instance
}

// Use runs fn with exclusive access to the handle's EVM instance.
func (h *Handle) Use(fn func(*evmi.Instance) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.inst)
}

// Registry is the process-wide store of live sessions.
type Registry struct {
	entries sync.Map // map[uuid.UUID]*Handle
}

// NewRegistry constructs an empty session registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Create registers inst under a freshly generated v4 UUID and returns it.
func (r *Registry) Create(inst *evmi.Instance) uuid.UUID {
	id := uuid.New()
	r.entries.Store(id, &Handle{inst: inst})
	return id
}

// Lookup returns the handle for id, or a STATE_NOT_FOUND rejection.
func (r *Registry) Lookup(id uuid.UUID) (*Handle, error) {
	v, ok := r.entries.Load(id)
	if !ok {
		return nil, apperror.New(apperror.CodeStateNotFound, nil)
	}
	return v.(*Handle), nil
}

// Delete removes id if present. Deleting an absent id is a
// STATE_NOT_FOUND rejection, matching DELETE's dominant contract
// (SPEC_FULL.md §9 Open Question (c)).
func (r *Registry) Delete(id uuid.UUID) error {
	if _, ok := r.entries.LoadAndDelete(id); !ok {
		return apperror.New(apperror.CodeStateNotFound, nil)
	}
	return nil
}
