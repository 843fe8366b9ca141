package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is an exported constant or variable used by the session engine.
var ErrMalformedToken = errors.New("malformed access token")

// Record defines a public type used by goSession APIs.
//
// Record instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Record struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Persist      bool
}

// empty reports whether the record carries no credential material.
func (r Record) empty() bool {
	return r.AccessToken == "" && r.RefreshToken == ""
}

var expiryParser = jwt.NewParser(jwt.WithoutClaimsValidation())

// DecodeExpiry extracts the exp claim from an access token without verifying
// its signature. Returns [ErrMalformedToken] when the token cannot be parsed
// or carries no exp claim.
func DecodeExpiry(accessToken string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := expiryParser.ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", ErrMalformedToken)
	}
	return claims.ExpiresAt.Time, nil
}
