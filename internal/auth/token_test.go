package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyngai/internal/config"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		Secret:      "test-secret-at-least-32-bytes-long!",
		TokenExpiry: time.Hour,
		Issuer:      "wyngai",
	}
}

func TestTokenIssuer_IssueAndValidate(t *testing.T) {
	issuer := NewTokenIssuer(testAuthConfig())

	token, expiry, err := issuer.Issue("mobile-app")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "mobile-app", claims.ClientName)
	assert.Equal(t, "wyngai", claims.Issuer)
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer(testAuthConfig())
	token, _, err := issuer.Issue("mobile-app")
	require.NoError(t, err)

	other := NewTokenIssuer(&config.AuthConfig{
		Secret:      "a-completely-different-secret-value",
		TokenExpiry: time.Hour,
		Issuer:      "wyngai",
	})
	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsExpiredToken(t *testing.T) {
	cfg := testAuthConfig()
	cfg.TokenExpiry = -time.Minute
	issuer := NewTokenIssuer(cfg)

	token, _, err := issuer.Issue("mobile-app")
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsWrongIssuer(t *testing.T) {
	cfg := testAuthConfig()
	cfg.Issuer = "someone-else"
	minted := NewTokenIssuer(cfg)
	token, _, err := minted.Issue("mobile-app")
	require.NoError(t, err)

	_, err = NewTokenIssuer(testAuthConfig()).Validate(token)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer(testAuthConfig())
	_, err := issuer.Validate("not.a.token")
	assert.Error(t, err)
}
