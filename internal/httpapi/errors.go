package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/pipeline"
	"jobflow-engine/internal/store"
)

// APIError is the body of every non-2xx response:
// {"error":{"code":"...","message":"...","request_id":"..."}}.
type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

var errorStatuses = []struct {
	target error
	status int
	code   string
}{
	{store.ErrNotFound, http.StatusNotFound, "not_found"},
	{store.ErrDuplicate, http.StatusConflict, "duplicate"},
	{pipeline.ErrRunInProgress, http.StatusConflict, "run_in_progress"},
	{domain.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
}

// writeErr maps known sentinels onto their HTTP status; anything else is a
// 500 with the given fallback code.
func writeErr(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			WriteError(w, r, e.status, e.code, err.Error())
			return
		}
	}
	WriteError(w, r, http.StatusInternalServerError, fallback, err.Error())
}
