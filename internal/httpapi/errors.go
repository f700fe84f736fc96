package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/EnsoFinance/temper/internal/apperror"
)

// errorBody is the unified error shape SPEC_FULL.md §7 requires for every
// non-2xx response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError renders err as the taxonomy's JSON shape, falling back to an
// unhandled 500 for anything that isn't an *apperror.Rejection.
func writeError(w http.ResponseWriter, err error) {
	rej, ok := err.(*apperror.Rejection)
	if !ok {
		rej = apperror.Unhandled(err)
	}
	writeJSON(w, rej.Status, errorBody{
		Code:    string(rej.Code),
		Message: rej.Message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, apperror.New(apperror.CodeNotFound, nil))
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, apperror.New(apperror.CodeMethodNotAllowed, nil))
}
