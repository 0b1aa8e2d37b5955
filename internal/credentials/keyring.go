package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "pixgram-cli"
)

// KeyringSlot stores values in the OS keychain/credential manager.
// Keys are scoped per backend so two servers never share a token.
type KeyringSlot struct {
	scope string
}

// NewKeyringSlot creates a keychain slot scoped to the given backend
func NewKeyringSlot(scope string) *KeyringSlot {
	return &KeyringSlot{scope: scope}
}

func (k *KeyringSlot) keyringKey(key string) string {
	return fmt.Sprintf("%s-%s", key, k.scope)
}

// Set persists the value in the OS keychain
func (k *KeyringSlot) Set(key, value string) error {
	if err := keyring.Set(keyringService, k.keyringKey(key), value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Get retrieves the value from the OS keychain
func (k *KeyringSlot) Get(key string) (string, bool, error) {
	value, err := keyring.Get(keyringService, k.keyringKey(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, true, nil
}

// Delete removes the value from the OS keychain
func (k *KeyringSlot) Delete(key string) error {
	if err := keyring.Delete(keyringService, k.keyringKey(key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
