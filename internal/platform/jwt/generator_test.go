package jwtmw

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestIssuer_IssueDatasetToken は生成されたトークンが有効で正しいクレームを含むことを検証します。
func TestIssuer_IssueDatasetToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		datasetID string
		ttl       time.Duration
	}{
		{"uuid id", "4f7c2b1e-8a57-4e0a-9d6b-0d2a6b8f1c3e", time.Hour},
		{"short ttl", "ds-1", time.Minute},
		{"long ttl", "ds-2", 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			iss := NewIssuer("test-secret")
			expiresAt := time.Now().Add(tt.ttl).Truncate(time.Second)
			tokenStr, err := iss.IssueDatasetToken(tt.datasetID, expiresAt)

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			token, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (any, error) {
				if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
					t.Errorf("unexpected signing method: %v", tok.Header["alg"])
				}
				return []byte("test-secret"), nil
			})
			if err != nil {
				t.Fatalf("failed to parse token: %v", err)
			}

			sub, _ := token.Claims.GetSubject()
			if sub != tt.datasetID {
				t.Errorf("expected sub %q, got %q", tt.datasetID, sub)
			}
			exp, _ := token.Claims.GetExpirationTime()
			if exp == nil || !exp.Time.Equal(expiresAt) {
				t.Errorf("expected exp %v, got %v", expiresAt, exp)
			}
			if _, ok := token.Claims.(jwt.MapClaims)["iat"]; !ok {
				t.Error("expected iat claim to be set")
			}
		})
	}
}

func TestIssuer_IssueDatasetToken_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer("").IssueDatasetToken("ds-1", time.Now().Add(time.Hour))

	if !errors.Is(err, ErrEmptySecret) {
		t.Errorf("expected ErrEmptySecret, got %v", err)
	}
}

// TestIssuer_DifferentDatasetsProduceDifferentTokens は異なるデータセットに対して異なるトークンが生成されることを検証します。
func TestIssuer_DifferentDatasetsProduceDifferentTokens(t *testing.T) {
	t.Parallel()

	iss := NewIssuer("test-secret")
	exp := time.Now().Add(time.Hour)

	token1, _ := iss.IssueDatasetToken("ds-1", exp)
	token2, _ := iss.IssueDatasetToken("ds-2", exp)

	if token1 == token2 {
		t.Error("expected different tokens for different datasets")
	}
}
