package remote

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/consolecache/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the API token claims the cache cares about.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// PrincipalFromToken extracts the principal (user email) from an API token.
//
// The signature is not verified: the token is only forwarded to the API,
// which does the verification. The email claim is preferred; sub is the
// fallback.
func PrincipalFromToken(token string) (string, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	principal := strings.TrimSpace(claims.Email)
	if principal == "" {
		principal = strings.TrimSpace(claims.Subject)
	}
	if principal == "" {
		return "", fmt.Errorf("%w: no email or sub claim", common.ErrInvalidToken)
	}
	return principal, nil
}
