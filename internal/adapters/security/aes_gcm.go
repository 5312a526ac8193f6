package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/forlarge/marketplace/internal/ports"
)

// AESGCMEncryption protects buyer contact details at rest. The key is
// derived per scope (the owning transaction hash) so ciphertexts cannot be
// moved between rows.
type AESGCMEncryption struct {
	seed string
}

func NewAESGCMEncryption(seed string) *AESGCMEncryption {
	return &AESGCMEncryption{seed: seed}
}

func (e *AESGCMEncryption) Encrypt(scope string, value string) ([]byte, error) {
	key := deriveKey(scope, e.seed)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := key[:gcm.NonceSize()]
	cipherText := gcm.Seal(nil, nonce, []byte(value), nil)
	return []byte(base64.StdEncoding.EncodeToString(cipherText)), nil
}

func (e *AESGCMEncryption) Decrypt(scope string, payload []byte) (string, error) {
	key := deriveKey(scope, e.seed)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := key[:gcm.NonceSize()]
	decoded, err := base64.StdEncoding.DecodeString(string(payload))
	if err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}
	plain, err := gcm.Open(nil, nonce, decoded, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func deriveKey(scope, seed string) []byte {
	sum := sha256.Sum256([]byte(seed + ":" + scope))
	return sum[:]
}

var _ ports.Encryption = (*AESGCMEncryption)(nil)
