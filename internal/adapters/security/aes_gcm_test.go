package security

import "testing"

func TestAESGCMRoundTrip(t *testing.T) {
	t.Parallel()

	enc := NewAESGCMEncryption("unit-test-seed")
	scope := "0xdeadbeef"

	payload, err := enc.Encrypt(scope, "buyer@example.com")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	plain, err := enc.Decrypt(scope, payload)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != "buyer@example.com" {
		t.Fatalf("round trip mismatch: %q", plain)
	}

	if _, err := enc.Decrypt("0xothertx", payload); err == nil {
		t.Fatalf("expected decrypt failure under a different scope")
	}
}
