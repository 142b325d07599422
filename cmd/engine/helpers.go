package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log"
	"net/http"

	"jobflow-engine/internal/config"
	"jobflow-engine/internal/httpapi"
	"jobflow-engine/internal/store"
)

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// shutdownHandler answers first, then cancels the engine context; main
// drains the server from there.
func shutdownHandler(token string, stop context.CancelFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Local-only guard (covers typical desktop usage)
		if !httpapi.IsLocal(r) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		// Token guard
		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("shutting down\n"))

		log.Println("[engine] shutdown requested")
		go stop()
	}
}

// openJobStore picks the tracking store backend. Alerts and run history stay
// in the local sqlite file either way.
func openJobStore(ctx context.Context, cfg config.Config, local *store.SQLiteStore) (store.JobStore, func(), error) {
	if cfg.Store.Driver != config.DriverPostgres {
		return local, func() {}, nil
	}
	pg, err := store.OpenPostgres(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[store] using postgres for tracked jobs")
	return pg, pg.Close, nil
}
