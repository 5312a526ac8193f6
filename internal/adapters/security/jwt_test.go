package security

import (
	"context"
	"testing"
	"time"

	"github.com/forlarge/marketplace/internal/ports"
)

func TestJWTVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	verifier, err := NewEphemeralJWTVerifier()
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	claims := ports.AuthClaims{
		UserID:        "0e8e7c25-9e0f-49b8-b2d4-4d3c3a0f4f10",
		Email:         "creator@example.com",
		Role:          "creator",
		WalletAddress: "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb3",
	}

	token, err := verifier.SignForTest(claims, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	got, err := verifier.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != claims {
		t.Fatalf("claims mismatch: got %+v want %+v", got, claims)
	}

	expired, err := verifier.SignForTest(claims, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("sign expired: %v", err)
	}
	if _, err := verifier.Verify(context.Background(), expired); err == nil {
		t.Fatalf("expected expired token rejection")
	}
}
