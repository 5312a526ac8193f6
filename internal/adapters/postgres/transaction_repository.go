package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forlarge/marketplace/internal/domain"
	"github.com/forlarge/marketplace/internal/ports"
)

type transactionRepository struct {
	db *gorm.DB
}

func (r *transactionRepository) Create(ctx context.Context, params ports.CreateTransactionParams) (domain.Transaction, error) {
	rec := transactionModel{
		ProductID:           params.ProductID,
		BuyerWalletAddress:  params.BuyerWalletAddress,
		SellerWalletAddress: params.SellerWalletAddress,
		BuyerEmailEncrypted: params.BuyerEmailEncrypted,
		Amount:              params.Amount,
		Currency:            params.Currency,
		Chain:               string(params.Chain),
		TxHash:              params.TxHash,
		Status:              string(domain.TransactionPending),
		PlatformFee:         params.PlatformFee,
		CreatorAmount:       params.CreatorAmount,
		CreatedAt:           params.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Transaction{}, fmt.Errorf("%w: tx_hash already recorded", domain.ErrConflict)
		}
		return domain.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return toDomainTransaction(rec), nil
}

func (r *transactionRepository) GetByID(ctx context.Context, transactionID uuid.UUID) (domain.Transaction, error) {
	var rec transactionModel
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Transaction{}, domain.ErrNotFound
		}
		return domain.Transaction{}, err
	}
	return toDomainTransaction(rec), nil
}

func (r *transactionRepository) GetByTxHash(ctx context.Context, txHash string) (domain.Transaction, error) {
	var rec transactionModel
	if err := r.db.WithContext(ctx).Where("tx_hash = ?", txHash).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Transaction{}, domain.ErrNotFound
		}
		return domain.Transaction{}, err
	}
	return toDomainTransaction(rec), nil
}

// ConfirmByTxHash performs the pending -> confirmed transition as a
// conditional update so racing confirmation writers are harmless: only one
// caller observes transitioned == true.
func (r *transactionRepository) ConfirmByTxHash(ctx context.Context, txHash string, confirmedAt time.Time) (domain.Transaction, bool, error) {
	res := r.db.WithContext(ctx).Model(&transactionModel{}).
		Where("tx_hash = ? AND status = ?", txHash, string(domain.TransactionPending)).
		Updates(map[string]any{
			"status":       string(domain.TransactionConfirmed),
			"confirmed_at": confirmedAt,
		})
	if res.Error != nil {
		return domain.Transaction{}, false, res.Error
	}
	tx, err := r.GetByTxHash(ctx, txHash)
	if err != nil {
		return domain.Transaction{}, false, err
	}
	return tx, res.RowsAffected > 0, nil
}

var _ ports.TransactionRepository = (*transactionRepository)(nil)
