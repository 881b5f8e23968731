//go:build !darwin

package crypto

import (
	"os"

	ierr "github.com/andy/invoicedesk/internal/errors"
)

// envKeyring uses the Secret Service when a session bus is running and
// otherwise reads INVOICEDESK_API_TOKEN.
type envKeyring struct {
	system *systemKeyring
}

func newPlatformKeyring() Keyring {
	return &envKeyring{system: &systemKeyring{}}
}

const envToken = "INVOICEDESK_API_TOKEN"

func (k *envKeyring) GetToken() (string, error) {
	if token, err := k.system.GetToken(); err == nil {
		return token, nil
	}
	if token := os.Getenv(envToken); token != "" {
		return token, nil
	}
	return "", ierr.NewError("no api token").
		WithHintf("No API token stored; run 'invoicedesk auth login' or set %s", envToken).
		Mark(ierr.ErrNotFound)
}

func (k *envKeyring) SetToken(token string) error {
	if err := k.system.SetToken(token); err != nil {
		if ierr.IsValidation(err) {
			return err
		}
		return ierr.WithError(err).
			WithHintf("Keyring not available on this platform: set %s instead", envToken).
			Mark(ierr.ErrSystem)
	}
	return nil
}

func (k *envKeyring) DeleteToken() error {
	if err := k.system.DeleteToken(); err != nil && !ierr.IsNotFound(err) {
		return ierr.WithError(err).
			WithHintf("Keyring not available on this platform: unset %s manually", envToken).
			Mark(ierr.ErrSystem)
	}
	return nil
}

func (k *envKeyring) IsAvailable() bool {
	return k.system.IsAvailable() || os.Getenv(envToken) != ""
}
