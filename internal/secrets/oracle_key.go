package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"jobflow-engine/internal/config"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "jobflow"
)

var ErrOracleKeyNotFound = errors.New("oracle API key not found (set it in keychain or via env)")

// GetOracleAPIKey resolves the oracle key: the env var named by
// oracle.api_key_env wins, then the keychain entry for the base URL.
func GetOracleAPIKey(cfg config.Config) (string, error) {
	if name := strings.TrimSpace(cfg.Oracle.APIKeyEnv); name != "" {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, nil
		}
	}

	key, err := keyring.Get(KeyringService, OracleKeyringAccount(cfg))
	if err == nil && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key), nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("keyring: %w", err)
	}
	return "", ErrOracleKeyNotFound
}

func SetOracleAPIKey(cfg config.Config, key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, OracleKeyringAccount(cfg), strings.TrimSpace(key))
}

func DeleteOracleAPIKey(cfg config.Config) error {
	return keyring.Delete(KeyringService, OracleKeyringAccount(cfg))
}

func OracleKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf("jobflow:oracle:%s", strings.TrimRight(strings.TrimSpace(cfg.Oracle.BaseURL), "/"))
}
