package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"jobflow-engine/internal/autopilot"
	"jobflow-engine/internal/domain"
	"jobflow-engine/internal/pipeline"
)

type PipelineHandler struct {
	Pipeline PipelineService
	Runs     RunHistory
}

type runRequest struct {
	Keywords string `json:"keywords"`
	Location string `json:"location"`
	Domain   string `json:"domain"`
}

func (h PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Keywords) == "" {
		WriteError(w, r, http.StatusBadRequest, "keywords_required", "keywords are required")
		return
	}

	runID, err := h.Pipeline.Start(autopilot.TriggerManual, domain.Query{
		Keywords: req.Keywords,
		Location: req.Location,
		Domain:   req.Domain,
	})
	if err != nil {
		if !errors.Is(err, pipeline.ErrRunInProgress) {
			log.Printf("level=error msg=\"pipeline start\" request_id=%s err=%v", RequestIDFrom(r.Context()), err)
		}
		writeErr(w, r, err, "start_failed")
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "run_id": runID})
}

func (h PipelineHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Pipeline.Status())
}

func (h PipelineHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.Runs.ListRuns(r.Context(), limit)
	if err != nil {
		writeErr(w, r, err, "db_error")
		return
	}
	writeJSON(w, runs)
}
