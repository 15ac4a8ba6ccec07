package remote

import (
	"testing"

	"github.com/dmitrijs2005/consolecache/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return s
}

func TestPrincipalFromToken(t *testing.T) {
	p, err := PrincipalFromToken(signed(t, Claims{Email: "a@x.com"}))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", p)

	p, err = PrincipalFromToken(signed(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "b@x.com"}}))
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", p)

	p, err = PrincipalFromToken(signed(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "sub@x.com"},
		Email:            "email@x.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, "email@x.com", p)
}

func TestPrincipalFromToken_Invalid(t *testing.T) {
	_, err := PrincipalFromToken("not-a-jwt")
	require.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = PrincipalFromToken(signed(t, Claims{}))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}
