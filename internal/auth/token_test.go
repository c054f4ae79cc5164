package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issue-service/internal/model"
)

func TestIssuerParserRoundTrip(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	parser := NewParser("secret")

	principal := model.Principal{SubjectID: uuid.New(), Role: model.RoleStaff, StaffID: "OM01", Email: "om01@au.edu"}
	token, expiresAt, err := issuer.Issue(principal)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := parser.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, principal, claims.Principal())
}

func TestParserRejectsForeignSecret(t *testing.T) {
	token, _, err := NewIssuer("one", time.Hour).Issue(model.Principal{SubjectID: uuid.New(), Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = NewParser("two").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParserRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := issuer.Issue(model.Principal{SubjectID: uuid.New(), Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = NewParser("secret").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
