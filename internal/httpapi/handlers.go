package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/EnsoFinance/temper/internal/apperror"
	"github.com/EnsoFinance/temper/internal/bundle"
	"github.com/EnsoFinance/temper/internal/evmi"
	"github.com/EnsoFinance/temper/internal/simulation"
)

var errEmptyBundle = errors.New("bundle must contain at least one request")

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	capBody(w, r)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperror.NewBadRequest(err)
	}
	return nil
}

// handleSimulate is POST /simulate: one ephemeral, non-committing call
// (SPEC_FULL.md §6).
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulation.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	inst, err := s.newInstance(r.Context(), req.ChainID, req.BlockNumber, req.GasLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	resp, err := simulation.Run(inst, req, false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSimulateBundle is POST /simulate-bundle: an ordered, ephemeral,
// committing sequence against one fresh EVM instance (SPEC_FULL.md §6).
func (s *Server) handleSimulateBundle(w http.ResponseWriter, r *http.Request) {
	var reqs []simulation.Request
	if err := decodeJSON(w, r, &reqs); err != nil {
		writeError(w, err)
		return
	}
	if len(reqs) == 0 {
		writeError(w, apperror.NewBadRequest(errEmptyBundle))
		return
	}

	inst, err := s.newInstance(r.Context(), reqs[0].ChainID, reqs[0].BlockNumber, reqs[0].GasLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	responses, err := bundle.Run(inst, reqs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

// createSessionResponse is the wire shape of POST /simulate-stateful's
// success body: the session id the caller replays bundles against.
type createSessionResponse struct {
	StatefulSimulationID string `json:"statefulSimulationId"`
}

// handleCreateSession is POST /simulate-stateful: provisions a new session
// EVM instance and returns its id (SPEC_FULL.md §6).
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req simulation.StatefulRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	inst, err := s.newInstance(r.Context(), req.ChainID, req.BlockNumber, req.GasLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	id := s.Sessions.Create(inst)
	writeJSON(w, http.StatusOK, createSessionResponse{StatefulSimulationID: id.String()})
}

// handleSessionBundle is POST /simulate-stateful/{id}: runs a bundle against
// a previously provisioned session, serialised through its Handle
// (SPEC_FULL.md §6, invariant I1).
func (s *Server) handleSessionBundle(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var reqs []simulation.Request
	if err := decodeJSON(w, r, &reqs); err != nil {
		writeError(w, err)
		return
	}
	if len(reqs) == 0 {
		writeError(w, apperror.NewBadRequest(errEmptyBundle))
		return
	}

	handle, err := s.Sessions.Lookup(id)
	if err != nil {
		writeError(w, err)
		return
	}

	var responses []*simulation.Response
	err = handle.Use(func(inst *evmi.Instance) error {
		var runErr error
		responses, runErr = bundle.Run(inst, reqs)
		return runErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

// handleDeleteSession is DELETE /simulate-stateful/{id} (SPEC_FULL.md §6).
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Sessions.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, apperror.New(apperror.CodeStateNotFound, err)
	}
	return id, nil
}
