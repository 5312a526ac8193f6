package application

import (
	"time"

	"github.com/forlarge/marketplace/internal/contracts"
	"github.com/forlarge/marketplace/internal/domain"
	"github.com/forlarge/marketplace/internal/ports"
)

type DownloadState struct {
	Product            domain.Product
	RemainingDownloads int
	RemainingTime      time.Duration
	ExpiresAt          time.Time
}

type ConsumeResult struct {
	FileLocator        string
	FileType           domain.FileType
	RemainingDownloads int
}

type IssuedAccess struct {
	Access  domain.DownloadAccess
	Reissue bool
}

func transactionResponse(tx domain.Transaction) contracts.TransactionResponse {
	out := contracts.TransactionResponse{
		TransactionID: tx.TransactionID.String(),
		ProductID:     tx.ProductID.String(),
		BuyerWallet:   tx.BuyerWalletAddress,
		SellerWallet:  tx.SellerWalletAddress,
		Amount:        tx.Amount.String(),
		Currency:      tx.Currency,
		Chain:         string(tx.Chain),
		TxHash:        tx.TxHash,
		Status:        string(tx.Status),
		PlatformFee:   tx.PlatformFee.String(),
		CreatorAmount: tx.CreatorAmount.String(),
	}
	if tx.ConfirmedAt != nil {
		out.ConfirmedAt = tx.ConfirmedAt.Format(time.RFC3339)
	}
	return out
}

func productResponse(p domain.Product) contracts.ProductResponse {
	return contracts.ProductResponse{
		ProductID:   p.ProductID.String(),
		CreatorID:   p.CreatorID.String(),
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price.String(),
		Currency:    p.Currency,
		FileType:    string(p.FileType),
		FileSize:    p.FileSize,
		Published:   p.Published,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

func unsignedPaymentResponse(payment ports.UnsignedPayment, sellerWallet, currency string) contracts.UnsignedPaymentResponse {
	return contracts.UnsignedPaymentResponse{
		Chain:             string(payment.Chain),
		Currency:          currency,
		Amount:            payment.Amount.String(),
		PlatformFee:       payment.PlatformFee.String(),
		CreatorAmount:     payment.CreatorAmount.String(),
		TokenAddress:      payment.TokenAddress,
		SellerWallet:      sellerWallet,
		PlatformWallet:    payment.PlatformWallet,
		CallData:          payment.CallData,
		ChainID:           payment.ChainID,
		GasLimit:          payment.GasLimit,
		Nonce:             payment.Nonce,
		TransactionBase64: payment.TransactionBase64,
		RecentBlockhash:   payment.RecentBlockhash,
	}
}
