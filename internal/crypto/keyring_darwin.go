//go:build darwin

package crypto

// macOS Keychain is always present
func newPlatformKeyring() Keyring {
	return &systemKeyring{}
}
