package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mvergara/caresched-backend/pkg/config"
	"github.com/mvergara/caresched-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret: "test-secret",
		Issuer: "caresched-idp",
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	signed, err := MintAccessToken(cfg, time.Now(), time.Hour, AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleDoctor,
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, signed)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, enums.UserRoleDoctor, claims.Role)
	assert.Equal(t, cfg.Issuer, claims.Issuer)
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	minted := testJWTConfig()
	minted.Issuer = "someone-else"

	signed, err := MintAccessToken(minted, time.Now(), time.Hour, AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRolePatient,
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(testJWTConfig(), signed)
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()

	signed, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), time.Hour, AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRolePatient,
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, signed)
	assert.Error(t, err)
}

func TestMintAccessTokenRejectsInvalidRole(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), time.Hour, AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRole("janitor"),
	})
	assert.Error(t, err)
}
