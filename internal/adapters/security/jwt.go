package security

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/forlarge/marketplace/internal/ports"
)

// JWTVerifier validates RS256 bearer tokens issued by the wallet-auth
// provider. Verification is local against the provider's public key.
type JWTVerifier struct {
	publicKey *rsa.PublicKey
	// signing key is only populated for the ephemeral dev verifier
	privateKey *rsa.PrivateKey
}

func NewJWTVerifier(publicKeyPEM string) (*JWTVerifier, error) {
	if publicKeyPEM == "" {
		return nil, errors.New("jwt public key is required")
	}
	pub, err := parseRSAPublic(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return &JWTVerifier{publicKey: pub}, nil
}

// NewEphemeralJWTVerifier creates an in-memory keypair for local/dev use.
// This exists to unblock runtime startup when the provider key is
// intentionally absent.
func NewEphemeralJWTVerifier() (*JWTVerifier, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	return &JWTVerifier{publicKey: &privateKey.PublicKey, privateKey: privateKey}, nil
}

type sessionClaims struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	WalletAddress string `json:"wallet_address"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) Verify(_ context.Context, raw string) (ports.AuthClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return v.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return ports.AuthClaims{}, err
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return ports.AuthClaims{}, errors.New("invalid token claims")
	}
	return ports.AuthClaims{
		UserID:        claims.UserID,
		Email:         claims.Email,
		Role:          claims.Role,
		WalletAddress: claims.WalletAddress,
	}, nil
}

// SignForTest issues a token against the ephemeral keypair.
func (v *JWTVerifier) SignForTest(claims ports.AuthClaims, expiresAt time.Time) (string, error) {
	if v.privateKey == nil {
		return "", errors.New("verifier holds no signing key")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, sessionClaims{
		UserID:        claims.UserID,
		Email:         claims.Email,
		Role:          claims.Role,
		WalletAddress: claims.WalletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	return token.SignedString(v.privateKey)
}

var _ ports.TokenVerifier = (*JWTVerifier)(nil)

func parseRSAPublic(raw string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, errors.New("invalid public PEM")
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	keyAny, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := keyAny.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return key, nil
}
