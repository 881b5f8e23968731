package crypto

import (
	"github.com/zalando/go-keyring"

	ierr "github.com/andy/invoicedesk/internal/errors"
)

// Keyring stores the API token outside the config file
type Keyring interface {
	GetToken() (string, error)
	SetToken(token string) error
	DeleteToken() error
	IsAvailable() bool
}

const (
	ServiceName = "invoicedesk"
	KeyName     = "api-token"
)

// NewKeyring returns the best available keyring implementation
func NewKeyring() Keyring {
	return newPlatformKeyring()
}

// systemKeyring talks to the OS secret store through go-keyring
type systemKeyring struct{}

func (k *systemKeyring) GetToken() (string, error) {
	token, err := keyring.Get(ServiceName, KeyName)
	if err != nil {
		if ierr.Is(err, keyring.ErrNotFound) {
			return "", ierr.WithError(err).
				WithHint("No API token stored; run 'invoicedesk auth login'").
				Mark(ierr.ErrNotFound)
		}
		return "", ierr.WithError(err).
			WithHint("Could not read the API token from the keyring").
			Mark(ierr.ErrSystem)
	}

	if token == "" {
		return "", ierr.NewError("api token is empty").Mark(ierr.ErrNotFound)
	}
	return token, nil
}

func (k *systemKeyring) SetToken(token string) error {
	if token == "" {
		return ierr.NewError("token cannot be empty").
			WithHint("Token cannot be empty").
			Mark(ierr.ErrValidation)
	}

	if err := keyring.Set(ServiceName, KeyName, token); err != nil {
		return ierr.WithError(err).
			WithHint("Could not store the API token in the keyring").
			Mark(ierr.ErrSystem)
	}
	return nil
}

func (k *systemKeyring) DeleteToken() error {
	if err := keyring.Delete(ServiceName, KeyName); err != nil {
		if ierr.Is(err, keyring.ErrNotFound) {
			return ierr.WithError(err).
				WithHint("No API token stored").
				Mark(ierr.ErrNotFound)
		}
		return ierr.WithError(err).
			WithHint("Could not remove the API token from the keyring").
			Mark(ierr.ErrSystem)
	}
	return nil
}

// IsAvailable probes the secret store with a throwaway entry
func (k *systemKeyring) IsAvailable() bool {
	testKey := "__invoicedesk_availability_test__"
	if err := keyring.Set(ServiceName, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(ServiceName, testKey)
	return true
}
