package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/forlarge/marketplace/internal/domain"
	"github.com/forlarge/marketplace/internal/ports"
)

// HMACWebhookVerifier checks the provider signature header carried on
// settlement webhook deliveries. The signature is the hex HMAC-SHA256 of
// the raw body under the shared webhook secret.
type HMACWebhookVerifier struct {
	secret []byte
}

func NewHMACWebhookVerifier(secret string) *HMACWebhookVerifier {
	return &HMACWebhookVerifier{secret: []byte(secret)}
}

func (v *HMACWebhookVerifier) Verify(signature string, body []byte) error {
	if signature == "" {
		return domain.ErrMissingSignature
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

var _ ports.WebhookVerifier = (*HMACWebhookVerifier)(nil)
