package chain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/forlarge/marketplace/internal/domain"
	"github.com/forlarge/marketplace/internal/ports"
)

func newTestBaseBuilder(t *testing.T) *BaseBuilder {
	t.Helper()
	builder, err := NewBaseBuilder(context.Background(), BaseConfig{
		USDCAddress: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		ChainID:     8453,
	})
	if err != nil {
		t.Fatalf("new base builder: %v", err)
	}
	return builder
}

func TestBaseBuilderTransferCalldata(t *testing.T) {
	t.Parallel()

	builder := newTestBaseBuilder(t)
	payment, err := builder.BuildPayment(context.Background(), ports.BuildPaymentParams{
		BuyerAddress:  "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb3",
		SellerAddress: "0x1111111111111111111111111111111111111111",
		Amount:        decimal.RequireFromString("10.00"),
	})
	if err != nil {
		t.Fatalf("build payment: %v", err)
	}

	// transfer(address,uint256) selector, padded seller, 10 USDC in base units.
	expected := "0xa9059cbb" +
		strings.Repeat("0", 24) + strings.Repeat("1", 40) +
		strings.Repeat("0", 58) + "989680"
	if payment.CallData != expected {
		t.Fatalf("unexpected calldata:\n got %s\nwant %s", payment.CallData, expected)
	}
	if payment.ChainID != 8453 {
		t.Fatalf("expected chain id 8453, got %d", payment.ChainID)
	}
	if payment.GasLimit != fallbackTransferGasLimit {
		t.Fatalf("expected fallback gas limit without rpc, got %d", payment.GasLimit)
	}
	if !payment.PlatformFee.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected fee 0.5, got %s", payment.PlatformFee)
	}
	if !payment.CreatorAmount.Equal(decimal.RequireFromString("9.5")) {
		t.Fatalf("expected creator amount 9.5, got %s", payment.CreatorAmount)
	}
}

func TestBaseBuilderRejectsBadInput(t *testing.T) {
	t.Parallel()

	builder := newTestBaseBuilder(t)
	if _, err := builder.BuildPayment(context.Background(), ports.BuildPaymentParams{
		BuyerAddress:  "not-an-address",
		SellerAddress: "0x1111111111111111111111111111111111111111",
		Amount:        decimal.RequireFromString("10.00"),
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid buyer address error, got %v", err)
	}

	if _, err := builder.BuildPayment(context.Background(), ports.BuildPaymentParams{
		BuyerAddress:  "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb3",
		SellerAddress: "0x1111111111111111111111111111111111111111",
		Amount:        decimal.RequireFromString("0.0000001"),
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected sub-unit precision rejection, got %v", err)
	}
}
