package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifa/internal/platform/middleware"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewManager("test-signing-key")

	token, err := m.IssueOperatorToken("admin@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Subject)
	assert.Equal(t, middleware.RoleOperator, claims.Role)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-signing-key")

	token, err := m.IssueOperatorToken("admin@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	issuer := NewManager("key-one")
	validator := NewManager("key-two")

	token, err := issuer.IssueOperatorToken("admin@example.com", time.Hour)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := NewManager("test-signing-key")
	_, err := m.ValidateToken("not.a.token")
	assert.Error(t, err)
}
