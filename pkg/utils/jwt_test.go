package utils_test

import (
	"testing"
	"time"

	"github.com/appser/appser-store/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := utils.GenerateJWT("ops", utils.RoleAdmin, "s3cret", time.Hour)
	require.NoError(t, err)

	claims, err := utils.ValidateJWT(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, utils.RoleAdmin, claims.Role)
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	token, err := utils.GenerateJWT("ops", utils.RoleAdmin, "s3cret", time.Hour)
	require.NoError(t, err)

	_, err = utils.ValidateJWT(token, "other")
	assert.Error(t, err)
}

func TestValidateJWTRejectsExpired(t *testing.T) {
	token, err := utils.GenerateJWT("ops", utils.RoleAdmin, "s3cret", -time.Minute)
	require.NoError(t, err)

	_, err = utils.ValidateJWT(token, "s3cret")
	assert.Error(t, err)
}

func TestGenerateJWTRequiresSecret(t *testing.T) {
	_, err := utils.GenerateJWT("ops", utils.RoleAdmin, "", time.Hour)
	assert.Error(t, err)
}

func TestGenerateID(t *testing.T) {
	a, err := utils.GenerateID(8)
	require.NoError(t, err)
	b, err := utils.GenerateID(8)
	require.NoError(t, err)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
