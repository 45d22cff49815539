package auth

import "errors"

// Token validation failures. The API maps all of them to 401.
var (
	ErrMissingToken     = errors.New("auth: no access token presented")
	ErrInvalidToken     = errors.New("auth: access token is malformed or has a bad signature")
	ErrExpiredToken     = errors.New("auth: access token expired")
	ErrTokenNotYetValid = errors.New("auth: access token used before its nbf time")
	// ErrMissingSubject is returned for a correctly signed token whose
	// sub claim is empty or not a user id.
	ErrMissingSubject = errors.New("auth: access token has no usable subject")
)
