package firebase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevTokenVerifier(t *testing.T) {
	v := NewDevTokenVerifier(nil)

	uid, err := v.VerifyToken(context.Background(), "dev:seller-1")
	require.NoError(t, err)
	assert.Equal(t, "seller-1", uid)

	_, err = v.VerifyToken(context.Background(), "dev:")
	assert.Error(t, err)

	_, err = v.VerifyToken(context.Background(), "eyJhbGciOi...")
	assert.Error(t, err)
}
