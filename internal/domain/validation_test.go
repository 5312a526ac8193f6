package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateWalletAddress(t *testing.T) {
	t.Parallel()

	if err := ValidateWalletAddress(ChainBase, "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb3"); err != nil {
		t.Fatalf("expected valid evm address, got %v", err)
	}
	if err := ValidateWalletAddress(ChainBase, "0x742d35"); err == nil {
		t.Fatalf("expected invalid evm address error")
	}
	if err := ValidateWalletAddress(ChainSolana, "4Nd1mYvNQkr1nt1CBgkqAjFEPBKLdNNvZwyLpgWvdmBc"); err != nil {
		t.Fatalf("expected valid solana address, got %v", err)
	}
	if err := ValidateWalletAddress(ChainSolana, "0OIl-not-base58"); err == nil {
		t.Fatalf("expected invalid solana address error")
	}
}

func TestValidateTxHash(t *testing.T) {
	t.Parallel()

	if err := ValidateTxHash(ChainBase, "0x"+strings.Repeat("ab", 32)); err != nil {
		t.Fatalf("expected valid evm hash, got %v", err)
	}
	if err := ValidateTxHash(ChainBase, "0xdeadbeef"); err == nil {
		t.Fatalf("expected invalid evm hash error")
	}
	if err := ValidateTxHash(ChainSolana, strings.Repeat("2xX", 24)); err != nil {
		t.Fatalf("expected valid solana signature, got %v", err)
	}
	if err := ValidateTxHash(ChainSolana, "short"); err == nil {
		t.Fatalf("expected invalid solana signature error")
	}
}

func TestValidatePrice(t *testing.T) {
	t.Parallel()

	if err := ValidatePrice(decimal.RequireFromString("9.99")); err != nil {
		t.Fatalf("expected valid price, got %v", err)
	}
	if err := ValidatePrice(decimal.Zero); err == nil {
		t.Fatalf("expected rejection of zero price")
	}
	if err := ValidatePrice(decimal.RequireFromString("1.0000001")); err == nil {
		t.Fatalf("expected rejection of sub-unit precision")
	}
}

func TestValidateFileFields(t *testing.T) {
	t.Parallel()

	if err := ValidateFileFields(FileTypeHosted, "blobs/pack.zip", ""); err != nil {
		t.Fatalf("expected valid hosted fields, got %v", err)
	}
	if err := ValidateFileFields(FileTypeHosted, "", ""); err == nil {
		t.Fatalf("expected missing file_ref error")
	}
	if err := ValidateFileFields(FileTypeExternal, "", "https://cdn.example.com/pack.zip"); err != nil {
		t.Fatalf("expected valid external fields, got %v", err)
	}
	if err := ValidateFileFields(FileTypeExternal, "", "http://cdn.example.com/pack.zip"); err == nil {
		t.Fatalf("expected rejection of non-https url")
	}
	if err := ValidateFileFields(FileTypeExternal, "blobs/pack.zip", "https://cdn.example.com/pack.zip"); err == nil {
		t.Fatalf("expected rejection when both locators are set")
	}
}
