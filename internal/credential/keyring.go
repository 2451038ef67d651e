package credential

import (
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "jiraflow"

// envPrefix names environment variables that override the keyring, e.g.
// JIRAFLOW_PASSWORD_PROD for server "prod".
const envPrefix = "JIRAFLOW_PASSWORD_"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/jiraflow/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("jiraflow-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// ServerKey returns the keyring key holding a server's secret.
func ServerKey(serverID string) string {
	return "jira-" + serverID
}

// EnvVar returns the environment variable that overrides a server's
// secret.
func EnvVar(serverID string) string {
	id := strings.ToUpper(serverID)
	id = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, id)
	return envPrefix + id
}

// ServerSecret returns the secret for a JIRA server, preferring the
// environment override over the keyring.
func ServerSecret(serverID string) (string, error) {
	if v, ok := os.LookupEnv(EnvVar(serverID)); ok {
		return v, nil
	}
	return Get(ServerKey(serverID))
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       "JIRA credential (" + key + ")",
		Description: "jiraflow server secret",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
