package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/forlarge/marketplace/internal/domain"
)

type BuildPaymentParams struct {
	BuyerAddress  string
	SellerAddress string
	Amount        decimal.Decimal
}

// UnsignedPayment is a chain transaction built server-side for the buyer's
// wallet to sign and submit. The server never holds keys or funds.
type UnsignedPayment struct {
	Chain         domain.Chain
	TokenAddress  string
	Amount        decimal.Decimal
	PlatformFee   decimal.Decimal
	CreatorAmount decimal.Decimal

	// EVM: ERC-20 transfer calldata against TokenAddress.
	CallData string
	ChainID  uint64
	GasLimit uint64
	Nonce    uint64

	// Solana: serialized unsigned transaction plus the blockhash it was
	// stamped with. The blockhash has a network-defined validity window;
	// a stale transaction must be rebuilt, not retried.
	TransactionBase64 string
	RecentBlockhash   string
	PlatformWallet    string
}

// PaymentBuilder constructs an unsigned payment for one chain.
type PaymentBuilder interface {
	Chain() domain.Chain
	BuildPayment(ctx context.Context, params BuildPaymentParams) (UnsignedPayment, error)
}
