package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret is returned when tokens are issued without a signing secret.
var ErrEmptySecret = errors.New("jwt secret is empty")

// Issuer signs dataset access tokens.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates an Issuer signing with secret (HS256).
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// IssueDatasetToken creates a signed token whose subject is the dataset id and whose
// expiry matches the dataset's own expiry.
func (i *Issuer) IssueDatasetToken(datasetID string, expiresAt time.Time) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrEmptySecret
	}
	claims := jwt.MapClaims{
		"sub": datasetID,
		"exp": expiresAt.Unix(),
		"iat": i.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
