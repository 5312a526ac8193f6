package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Chain string

const (
	ChainBase   Chain = "base"
	ChainSolana Chain = "solana"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionConfirmed TransactionStatus = "confirmed"
)

// Transaction records one purchase attempt. It is created pending when the
// buyer's client reports a submitted signature and transitions to confirmed
// exactly once, by either the client success callback or the settlement
// webhook matching on TxHash.
type Transaction struct {
	TransactionID        uuid.UUID
	ProductID            uuid.UUID
	BuyerWalletAddress   string
	SellerWalletAddress  string
	BuyerEmailEncrypted  []byte
	Amount               decimal.Decimal
	Currency             string
	Chain                Chain
	TxHash               string
	Status               TransactionStatus
	PlatformFee          decimal.Decimal
	CreatorAmount        decimal.Decimal
	ConfirmedAt          *time.Time
	CreatedAt            time.Time
}

func (t Transaction) Confirmed() bool {
	return t.Status == TransactionConfirmed
}

func ParseChain(raw string) (Chain, error) {
	switch Chain(raw) {
	case ChainBase:
		return ChainBase, nil
	case ChainSolana:
		return ChainSolana, nil
	default:
		return "", ErrUnsupportedChain
	}
}
