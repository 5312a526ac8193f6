package ports

// Encryption protects PII at rest. The scope binds a ciphertext to its
// owning record so values cannot be swapped between rows.
type Encryption interface {
	Encrypt(scope string, value string) ([]byte, error)
	Decrypt(scope string, payload []byte) (string, error)
}
