// Package common contains shared constants and sentinel errors used across
// consolecache components.
package common

const (
	// AuthorizationHeaderName carries the bearer token on API requests.
	AuthorizationHeaderName = "Authorization"

	// PrincipalQueryParam names the principal on API requests. The API
	// scopes every listing by this parameter.
	PrincipalQueryParam = "email"

	// EnvPrefix prefixes every configuration environment variable.
	EnvPrefix = "CONSOLECACHE_"
)
