package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FileType string

const (
	FileTypeHosted   FileType = "hosted"
	FileTypeExternal FileType = "external"
)

// Product is a sellable digital artifact owned by a creator. Exactly one of
// FileRef (hosted blob key) or ExternalURL is set, according to FileType.
type Product struct {
	ProductID          uuid.UUID
	CreatorID          uuid.UUID
	Title              string
	Description        string
	Price              decimal.Decimal
	Currency           string
	FileType           FileType
	FileRef            string
	ExternalURL        string
	FileSize           int64
	Published          bool
	SellerWalletBase   string
	SellerWalletSolana string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FileLocator returns the reference a confirmed buyer is redirected to.
func (p Product) FileLocator() string {
	if p.FileType == FileTypeExternal {
		return p.ExternalURL
	}
	return p.FileRef
}

// SellerWallet picks the creator payout address for the given chain.
func (p Product) SellerWallet(chain Chain) string {
	switch chain {
	case ChainBase:
		return p.SellerWalletBase
	case ChainSolana:
		return p.SellerWalletSolana
	default:
		return ""
	}
}
