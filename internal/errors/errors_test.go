package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkedErrorsMatchKind(t *testing.T) {
	err := NewError("invoice 7 not found").
		WithHint("The invoice no longer exists").
		Mark(ErrNotFound)

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))

	wrapped := fmt.Errorf("delete: %w", err)
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, "The invoice no longer exists", DisplayMessage(wrapped))
}

func TestKindFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadRequest, ErrValidation},
		{http.StatusForbidden, ErrPermissionDenied},
		{http.StatusUnauthorized, ErrPermissionDenied},
		{http.StatusInternalServerError, ErrHTTPClient},
		{http.StatusConflict, ErrHTTPClient},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, KindFromStatus(tt.status))
		})
	}
}

func TestDisplayMessageWithoutHint(t *testing.T) {
	assert.Equal(t, "", DisplayMessage(nil))
	assert.Equal(t, "boom", DisplayMessage(fmt.Errorf("boom")))
}
