//go:build !darwin

package crypto

import (
	"testing"

	ierr "github.com/andy/invoicedesk/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestEnvKeyringFallsBackToEnv(t *testing.T) {
	keyring.MockInitWithError(assert.AnError)
	defer keyring.MockInit()
	k := newPlatformKeyring()

	t.Setenv(envToken, "")
	_, err := k.GetToken()
	assert.True(t, ierr.IsNotFound(err))

	t.Setenv(envToken, "from-env")
	token, err := k.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)
	assert.True(t, k.IsAvailable())
}

func TestEnvKeyringPrefersSecretStore(t *testing.T) {
	keyring.MockInit()
	k := newPlatformKeyring()
	t.Setenv(envToken, "from-env")

	require.NoError(t, k.SetToken("stored"))
	token, err := k.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "stored", token)

	require.NoError(t, k.DeleteToken())
	require.NoError(t, k.DeleteToken(), "deleting twice is not an error")
}
