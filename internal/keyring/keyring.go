package keyring

import (
	"errors"
	"fmt"

	"github.com/julianstephens/streaklit/internal/constants"
	"github.com/zalando/go-keyring"
)

var (
	// ErrNotFound is returned when no password is stored for the account
	ErrNotFound = errors.New("password not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func account(role string) string {
	if role == "" {
		return constants.DefaultKeyringUser
	}
	return constants.DefaultKeyringUser + ":" + role
}

// GetPassword returns the PostgreSQL password stored for role.
// An empty role addresses the default entry.
func GetPassword(role string) (string, error) {
	pw, err := keyring.Get(constants.AppName, account(role))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return pw, nil
}

// SetPassword stores the PostgreSQL password for role.
func SetPassword(role, password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if err := keyring.Set(constants.AppName, account(role), password); err != nil {
		return fmt.Errorf("failed to store password in keyring: %w", err)
	}
	return nil
}

// DeletePassword removes the stored password for role.
func DeletePassword(role string) error {
	if err := keyring.Delete(constants.AppName, account(role)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete password from keyring: %w", err)
	}
	return nil
}

// IsAvailable reports whether the OS keyring answers a read.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
