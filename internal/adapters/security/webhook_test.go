package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/forlarge/marketplace/internal/domain"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookVerify(t *testing.T) {
	t.Parallel()

	verifier := NewHMACWebhookVerifier("topsecret")
	body := []byte(`{"type":"payment.confirmed","data":{"tx_hash":"0xabc"}}`)

	if err := verifier.Verify(signBody("topsecret", body), body); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
	if err := verifier.Verify("", body); !errors.Is(err, domain.ErrMissingSignature) {
		t.Fatalf("expected missing signature error, got %v", err)
	}
	if err := verifier.Verify(signBody("wrong", body), body); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature error, got %v", err)
	}
	if err := verifier.Verify(signBody("topsecret", body), []byte("tampered")); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for tampered body, got %v", err)
	}
}
