package httpapi

import (
	"errors"
	"net/http"
	"sync/atomic"

	"jobflow-engine/internal/config"
	"jobflow-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setOracleKeyReq struct {
	APIKey string `json:"api_key"`
}

func (h SecretsHandler) SetOracleKey(w http.ResponseWriter, r *http.Request) {
	var req setOracleKeyReq
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.SetOracleAPIKey(cfg, req.APIKey); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_error", "failed to store api key: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) DeleteOracleKey(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.DeleteOracleAPIKey(cfg); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OracleKeyStatus reports whether a key is resolvable, never the key itself.
func (h SecretsHandler) OracleKeyStatus(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)
	_, err := secrets.GetOracleAPIKey(cfg)
	if err != nil && !errors.Is(err, secrets.ErrOracleKeyNotFound) {
		WriteError(w, r, http.StatusInternalServerError, "keyring_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{
		"configured": err == nil,
		"account":    secrets.OracleKeyringAccount(cfg),
		"env":        cfg.Oracle.APIKeyEnv,
	})
}
