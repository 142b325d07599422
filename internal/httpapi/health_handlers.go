package httpapi

import (
	"net/http"
	"time"

	"jobflow-engine/internal/events"
)

type HealthHandler struct {
	Hub *events.Hub
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	}
	if h.Hub != nil {
		body["sse_subscribers"] = h.Hub.Subscribers()
		body["sse_dropped"] = h.Hub.Dropped()
	}
	writeJSON(w, body)
}
