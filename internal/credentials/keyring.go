package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps the token in the OS secret store (Keychain, Windows
// Credential Manager, Secret Service) under Service and Account.
type KeyringStore struct{}

func (KeyringStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("refusing to store an empty token")
	}
	if err := keyring.Set(Service, Account, token); err != nil {
		return unavailable("store", err)
	}
	return nil
}

func (KeyringStore) Load() (string, error) {
	token, err := keyring.Get(Service, Account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("read", err)
	}
	return strings.TrimSpace(token), nil
}

// Delete removes the token. Deleting a missing token is not an error.
func (KeyringStore) Delete() error {
	err := keyring.Delete(Service, Account)
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return unavailable("delete", err)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: keyring %s: %v", ErrUnavailable, op, err)
}
