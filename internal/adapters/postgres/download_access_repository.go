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

type downloadAccessRepository struct {
	db *gorm.DB
}

// Create inserts the access row. A unique index on transaction_id turns a
// racing duplicate insert into a read of the winner's row.
func (r *downloadAccessRepository) Create(ctx context.Context, params ports.CreateDownloadAccessParams) (domain.DownloadAccess, bool, error) {
	rec := downloadAccessModel{
		TransactionID:      params.TransactionID,
		ProductID:          params.ProductID,
		BuyerWalletAddress: params.BuyerWalletAddress,
		AccessToken:        params.AccessToken,
		CreatedAt:          params.CreatedAt,
		ExpiresAt:          params.ExpiresAt,
		MaxDownloads:       params.MaxDownloads,
	}
	err := r.db.WithContext(ctx).Create(&rec).Error
	if err == nil {
		return toDomainDownloadAccess(rec), true, nil
	}
	if !isUniqueViolation(err) {
		return domain.DownloadAccess{}, false, fmt.Errorf("create download access: %w", err)
	}
	existing, getErr := r.GetByTransactionID(ctx, params.TransactionID)
	if getErr != nil {
		return domain.DownloadAccess{}, false, getErr
	}
	return existing, false, nil
}

func (r *downloadAccessRepository) GetByToken(ctx context.Context, token string) (domain.DownloadAccess, error) {
	var rec downloadAccessModel
	if err := r.db.WithContext(ctx).Where("access_token = ?", token).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DownloadAccess{}, domain.ErrNotFound
		}
		return domain.DownloadAccess{}, err
	}
	return toDomainDownloadAccess(rec), nil
}

func (r *downloadAccessRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (domain.DownloadAccess, error) {
	var rec downloadAccessModel
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DownloadAccess{}, domain.ErrNotFound
		}
		return domain.DownloadAccess{}, err
	}
	return toDomainDownloadAccess(rec), nil
}

// ConsumeOnce guards expiry and quota inside the UPDATE itself. Two
// concurrent calls on the last remaining download serialize at the row
// lock; the second sees download_count == max_downloads and affects zero
// rows.
func (r *downloadAccessRepository) ConsumeOnce(ctx context.Context, token string, now time.Time) (domain.DownloadAccess, bool, error) {
	res := r.db.WithContext(ctx).Model(&downloadAccessModel{}).
		Where("access_token = ? AND expires_at > ? AND download_count < max_downloads", token, now).
		Update("download_count", gorm.Expr("download_count + 1"))
	if res.Error != nil {
		return domain.DownloadAccess{}, false, res.Error
	}
	access, err := r.GetByToken(ctx, token)
	if err != nil {
		return domain.DownloadAccess{}, false, err
	}
	return access, res.RowsAffected > 0, nil
}

var _ ports.DownloadAccessRepository = (*downloadAccessRepository)(nil)
