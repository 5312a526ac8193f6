package ports

import "context"

type AuthClaims struct {
	UserID        string
	Email         string
	Role          string
	WalletAddress string
}

// TokenVerifier validates a bearer token presented by a creator or buyer
// session. Verification is local (public key), no network round trip.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (AuthClaims, error)
}

// WebhookVerifier checks the provider signature header on settlement
// webhook deliveries.
type WebhookVerifier interface {
	Verify(signature string, body []byte) error
}
