package httpapi

import (
	"net/http"
	"strconv"

	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/events"
	"jobflow-engine/internal/store"
)

type JobsHandler struct {
	Jobs      store.JobStore
	Publisher events.Publisher
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	status := q.Get("status")
	if status != "" {
		if _, err := domain.ParseStatus(status); err != nil {
			writeErr(w, r, err, "invalid_status")
			return
		}
	}

	jobs, err := h.Jobs.ListJobs(r.Context(), store.ListJobsOpts{
		Status: status,
		Limit:  limit,
	})
	if err != nil {
		writeErr(w, r, err, "db_error")
		return
	}
	writeJSON(w, jobs)
}

func (h JobsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Jobs.DeleteJob(r.Context(), id); err != nil {
		writeErr(w, r, err, "db_error")
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.publish(events.MakeEvent(reqID, events.TypeJobDeleted, 1, map[string]any{"id": id}))
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h JobsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeErr(w, r, err, "invalid_status")
		return
	}

	id := r.PathValue("id")
	if err := h.Jobs.UpdateStatus(r.Context(), id, status); err != nil {
		writeErr(w, r, err, "db_error")
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id, "status": status})
}

func (h JobsHandler) publish(evt string) {
	if h.Publisher != nil {
		h.Publisher.Publish(evt)
	}
}
