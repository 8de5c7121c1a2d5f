package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	a := NewAuthenticator("test-secret", "")

	token, err := a.GenerateJWT("u1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := a.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthenticator("secret-one", "")
	verifier := NewAuthenticator("secret-two", "")

	token, err := issuer.GenerateJWT("u1")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	a := NewAuthenticator("test-secret", "")
	_, err := a.Validate("not-a-token")
	assert.Error(t, err)
}

func TestStaticAPIKey(t *testing.T) {
	a := NewAuthenticator("test-secret", "service-key")

	userID, err := a.Validate("service-key")
	require.NoError(t, err)
	assert.Equal(t, "api-key-user", userID)

	// Disabled when no key is configured.
	disabled := NewAuthenticator("test-secret", "")
	_, err = disabled.Validate("service-key")
	assert.Error(t, err)
}
