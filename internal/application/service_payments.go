package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forlarge/marketplace/internal/contracts"
	"github.com/forlarge/marketplace/internal/domain"
	"github.com/forlarge/marketplace/internal/ports"
)

// BuildPayment constructs an unsigned on-chain payment for a published
// product. The wallet signs and submits it client-side; nothing is
// persisted here.
func (s *Service) BuildPayment(ctx context.Context, req contracts.CreatePaymentRequest) (contracts.UnsignedPaymentResponse, error) {
	chain, err := domain.ParseChain(req.Chain)
	if err != nil {
		return contracts.UnsignedPaymentResponse{}, fmt.Errorf("%w: chain must be base or solana", domain.ErrInvalidInput)
	}
	if err := domain.ValidateWalletAddress(chain, req.BuyerWallet); err != nil {
		return contracts.UnsignedPaymentResponse{}, err
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return contracts.UnsignedPaymentResponse{}, fmt.Errorf("%w: invalid product_id", domain.ErrInvalidInput)
	}

	product, err := s.getProductCached(ctx, productID)
	if err != nil {
		return contracts.UnsignedPaymentResponse{}, err
	}
	if !product.Published {
		return contracts.UnsignedPaymentResponse{}, domain.ErrProductUnpublished
	}
	sellerWallet := product.SellerWallet(chain)
	if sellerWallet == "" {
		return contracts.UnsignedPaymentResponse{}, fmt.Errorf("%w: creator has no %s payout wallet", domain.ErrInvalidInput, chain)
	}

	builder, ok := s.builders[string(chain)]
	if !ok {
		return contracts.UnsignedPaymentResponse{}, domain.ErrUnsupportedChain
	}
	payment, err := builder.BuildPayment(ctx, ports.BuildPaymentParams{
		BuyerAddress:  strings.TrimSpace(req.BuyerWallet),
		SellerAddress: sellerWallet,
		Amount:        product.Price,
	})
	if err != nil {
		return contracts.UnsignedPaymentResponse{}, err
	}
	return unsignedPaymentResponse(payment, sellerWallet, product.Currency), nil
}

// RecordPayment persists the pending transaction the buyer's client reports
// after submitting a signed payment. tx_hash is the join key the settlement
// path uses later, so a duplicate hash is a conflict, not a retry.
func (s *Service) RecordPayment(ctx context.Context, req contracts.RecordPaymentRequest, idempotencyKey string) (contracts.TransactionResponse, error) {
	if rec, err := s.getIdempotent(ctx, idempotencyKey, req); err != nil {
		return contracts.TransactionResponse{}, err
	} else if rec != nil {
		var cached contracts.TransactionResponse
		if unmarshalErr := json.Unmarshal(rec.ResponseBody, &cached); unmarshalErr == nil {
			return cached, nil
		}
	}

	chain, err := domain.ParseChain(req.Chain)
	if err != nil {
		return contracts.TransactionResponse{}, fmt.Errorf("%w: chain must be base or solana", domain.ErrInvalidInput)
	}
	if err := domain.ValidateWalletAddress(chain, req.BuyerWallet); err != nil {
		return contracts.TransactionResponse{}, err
	}
	if err := domain.ValidateTxHash(chain, req.TxHash); err != nil {
		return contracts.TransactionResponse{}, err
	}
	if req.Currency != "" {
		if err := domain.ValidateCurrency(req.Currency); err != nil {
			return contracts.TransactionResponse{}, err
		}
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return contracts.TransactionResponse{}, fmt.Errorf("%w: invalid product_id", domain.ErrInvalidInput)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return contracts.TransactionResponse{}, fmt.Errorf("%w: amount must be a positive decimal", domain.ErrInvalidInput)
	}

	product, err := s.getProductCached(ctx, productID)
	if err != nil {
		return contracts.TransactionResponse{}, err
	}
	sellerWallet := product.SellerWallet(chain)
	if sellerWallet == "" {
		return contracts.TransactionResponse{}, fmt.Errorf("%w: creator has no %s payout wallet", domain.ErrInvalidInput, chain)
	}

	if err := s.reserveIdempotency(ctx, idempotencyKey, req); err != nil {
		return contracts.TransactionResponse{}, err
	}

	now := s.nowFn()
	fee, creator := domain.SplitAmount(amount, s.cfg.PlatformFeePercent)
	params := ports.CreateTransactionParams{
		ProductID:           productID,
		BuyerWalletAddress:  strings.TrimSpace(req.BuyerWallet),
		SellerWalletAddress: sellerWallet,
		Amount:              amount,
		Currency:            s.cfg.DefaultCurrency,
		Chain:               chain,
		TxHash:              strings.TrimSpace(req.TxHash),
		PlatformFee:         fee,
		CreatorAmount:       creator,
		CreatedAt:           now,
	}
	if req.BuyerEmail != "" && s.encryption != nil {
		encrypted, encErr := s.encryption.Encrypt(req.TxHash, req.BuyerEmail)
		if encErr != nil {
			return contracts.TransactionResponse{}, encErr
		}
		params.BuyerEmailEncrypted = encrypted
	}

	tx, err := s.transactions.Create(ctx, params)
	if err != nil {
		return contracts.TransactionResponse{}, err
	}

	resp := transactionResponse(tx)
	s.completeIdempotencyJSON(ctx, idempotencyKey, resp)
	return resp, nil
}

// ConfirmPaymentSuccess is the synchronous client-reported confirmation
// path. It races the settlement webhook on the same row; both paths funnel
// through the same conditional transition and idempotent issuance.
func (s *Service) ConfirmPaymentSuccess(ctx context.Context, req contracts.PaymentSuccessRequest) (contracts.PaymentSuccessResponse, error) {
	if strings.TrimSpace(req.TxHash) == "" {
		return contracts.PaymentSuccessResponse{}, fmt.Errorf("%w: tx_hash is required", domain.ErrInvalidInput)
	}
	issued, err := s.settleByTxHash(ctx, req.TxHash, settleNotify{
		buyerEmail:   req.BuyerEmail,
		creatorEmail: req.CreatorEmail,
		productTitle: req.ProductTitle,
	})
	if err != nil {
		return contracts.PaymentSuccessResponse{}, err
	}
	return contracts.PaymentSuccessResponse{
		TransactionID: issued.Access.TransactionID.String(),
		Token:         issued.Access.AccessToken,
		ExpiresAt:     issued.Access.ExpiresAt.Format(time.RFC3339),
		MaxDownloads:  issued.Access.MaxDownloads,
	}, nil
}
