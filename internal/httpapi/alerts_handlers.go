package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"jobflow-engine/internal/domain"
)

type AlertsHandler struct {
	Alerts    AlertStore
	Scheduler AlertReloader
}

func (h AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Alerts.ListAlerts(r.Context())
	if err != nil {
		writeErr(w, r, err, "db_error")
		return
	}
	writeJSON(w, alerts)
}

type createAlertRequest struct {
	Keywords  string `json:"keywords"`
	Location  string `json:"location"`
	Domain    string `json:"domain"`
	Frequency string `json:"frequency"`
}

func (h AlertsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Keywords) == "" {
		WriteError(w, r, http.StatusBadRequest, "keywords_required", "keywords are required")
		return
	}
	freq, err := domain.ParseFrequency(strings.TrimSpace(req.Frequency))
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_frequency", err.Error())
		return
	}

	q := domain.Query{Keywords: req.Keywords, Location: req.Location, Domain: req.Domain}.Normalized()
	a := domain.Alert{
		ID:        uuid.NewString(),
		Keywords:  q.Keywords,
		Location:  q.Location,
		Domain:    q.Domain,
		Frequency: freq,
		Active:    true,
	}
	if err := h.Alerts.CreateAlert(r.Context(), a); err != nil {
		writeErr(w, r, err, "db_error")
		return
	}
	h.reload(r.Context())
	WriteJSON(w, http.StatusCreated, a)
}

func (h AlertsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Alerts.DeleteAlert(r.Context(), id); err != nil {
		writeErr(w, r, err, "db_error")
		return
	}
	h.reload(r.Context())
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

func (h AlertsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	a, err := h.Alerts.GetAlert(r.Context(), id)
	if err != nil {
		writeErr(w, r, err, "db_error")
		return
	}
	a.Active = !a.Active
	if err := h.Alerts.SetAlertActive(r.Context(), id, a.Active); err != nil {
		writeErr(w, r, err, "db_error")
		return
	}
	h.reload(r.Context())
	writeJSON(w, a)
}

// reload keeps the cron entries in step with the alert table. A failure is
// logged; the table stays authoritative and the next reload catches up.
func (h AlertsHandler) reload(ctx context.Context) {
	if h.Scheduler == nil {
		return
	}
	if err := h.Scheduler.Reload(ctx); err != nil {
		log.Printf("level=error msg=\"scheduler reload\" request_id=%s err=%v", RequestIDFrom(ctx), err)
	}
}
