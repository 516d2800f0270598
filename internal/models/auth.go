package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims carries the identity extracted from the bearer token issued
// by the external auth provider. Token is the raw credential, forwarded
// verbatim to the academic backend.
type SessionClaims struct {
	Subject string
	Token   string
}

// TokenClaims mirrors the registered claims found in PróSiga access tokens.
type TokenClaims struct {
	jwt.RegisteredClaims
}
