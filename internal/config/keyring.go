package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name in the OS keychain
	KeyringService = "skuld"

	// KeyringJiraTokenItem holds the Jira API token
	KeyringJiraTokenItem = "jira-api-token"

	// KeyringWakaTimeKeyItem holds the WakaTime API key
	KeyringWakaTimeKeyItem = "wakatime-api-key"
)

// KeyringManager handles secure credential storage in OS keychain
type KeyringManager struct {
	logger logrus.FieldLogger
}

// NewKeyringManager creates a new keyring manager
func NewKeyringManager() *KeyringManager {
	return &KeyringManager{
		logger: logrus.StandardLogger().WithField("component", "keyring"),
	}
}

// SetSecret stores a secret in the OS keychain.
// macOS: Keychain Access, Windows: Credential Manager, Linux: Secret Service.
func (km *KeyringManager) SetSecret(item, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", item)
	}
	if err := keyring.Set(KeyringService, item, value); err != nil {
		km.logger.WithError(err).WithField("item", item).Error("failed to save secret to keychain")
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}
	km.logger.WithField("item", item).Debug("secret saved to keychain")
	return nil
}

// GetSecret retrieves a secret. A missing item is not an error.
func (km *KeyringManager) GetSecret(item string) (string, error) {
	value, err := keyring.Get(KeyringService, item)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		km.logger.WithError(err).WithField("item", item).Debug("keychain read failed")
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}
	return value, nil
}

// DeleteSecret removes a secret; deleting a missing item succeeds.
func (km *KeyringManager) DeleteSecret(item string) error {
	err := keyring.Delete(KeyringService, item)
	if err == keyring.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}
	return nil
}

// IsAvailable checks if OS keychain is available.
// Returns false on headless systems where no secret service is running.
func (km *KeyringManager) IsAvailable() bool {
	_, err := keyring.Get(KeyringService, "test-availability")
	if err == nil || err == keyring.ErrNotFound {
		return true
	}
	km.logger.WithError(err).Debug("keychain not available")
	return false
}

// SecretItem maps a user-facing credential name to its keychain item
func SecretItem(name string) (string, error) {
	switch name {
	case "jira":
		return KeyringJiraTokenItem, nil
	case "wakatime":
		return KeyringWakaTimeKeyItem, nil
	default:
		return "", fmt.Errorf("unknown credential %q (want jira or wakatime)", name)
	}
}

// MaskSecret masks a secret for display: first 4 and last 4 characters.
func MaskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", secret[:4], secret[len(secret)-4:])
}
