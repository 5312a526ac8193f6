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

type productRepository struct {
	db *gorm.DB
}

func (r *productRepository) Create(ctx context.Context, params ports.CreateProductParams) (domain.Product, error) {
	rec := productModel{
		CreatorID:          params.CreatorID,
		Title:              params.Title,
		Description:        params.Description,
		Price:              params.Price,
		Currency:           params.Currency,
		FileType:           string(params.FileType),
		FileRef:            params.FileRef,
		ExternalURL:        params.ExternalURL,
		FileSize:           params.FileSize,
		SellerWalletBase:   params.SellerWalletBase,
		SellerWalletSolana: params.SellerWalletSolana,
		CreatedAt:          params.CreatedAt,
		UpdatedAt:          params.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return toDomainProduct(rec), nil
}

func (r *productRepository) GetByID(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	var rec productModel
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, err
	}
	return toDomainProduct(rec), nil
}

func (r *productRepository) Update(ctx context.Context, params ports.UpdateProductParams) (domain.Product, error) {
	updates := map[string]any{"updated_at": params.UpdatedAt}
	if params.Title != nil {
		updates["title"] = *params.Title
	}
	if params.Description != nil {
		updates["description"] = *params.Description
	}
	if params.Price != nil {
		updates["price"] = *params.Price
	}
	if params.SellerWalletBase != nil {
		updates["seller_wallet_base"] = *params.SellerWalletBase
	}
	if params.SellerWalletSolana != nil {
		updates["seller_wallet_solana"] = *params.SellerWalletSolana
	}

	res := r.db.WithContext(ctx).Model(&productModel{}).
		Where("product_id = ? AND creator_id = ?", params.ProductID, params.CreatorID).
		Updates(updates)
	if res.Error != nil {
		return domain.Product{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Product{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, params.ProductID)
}

func (r *productRepository) SetPublished(ctx context.Context, productID, creatorID uuid.UUID, published bool, now time.Time) (domain.Product, error) {
	res := r.db.WithContext(ctx).Model(&productModel{}).
		Where("product_id = ? AND creator_id = ?", productID, creatorID).
		Updates(map[string]any{"published": published, "updated_at": now})
	if res.Error != nil {
		return domain.Product{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Product{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, productID)
}

func (r *productRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]domain.Product, error) {
	var rows []productModel
	if err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at desc").Limit(limit).Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainProduct(row))
	}
	return out, nil
}

func (r *productRepository) ListPublished(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	var rows []productModel
	if err := r.db.WithContext(ctx).
		Where("published = TRUE").
		Order("created_at desc").Limit(limit).Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainProduct(row))
	}
	return out, nil
}

var _ ports.ProductRepository = (*productRepository)(nil)
