package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forlarge/marketplace/internal/contracts"
	"github.com/forlarge/marketplace/internal/domain"
	"github.com/forlarge/marketplace/internal/ports"
)

func (s *Service) CreateProduct(ctx context.Context, creatorID uuid.UUID, req contracts.CreateProductRequest, idempotencyKey string) (contracts.ProductResponse, error) {
	if rec, err := s.getIdempotent(ctx, idempotencyKey, req); err != nil {
		return contracts.ProductResponse{}, err
	} else if rec != nil {
		var cached contracts.ProductResponse
		if unmarshalErr := json.Unmarshal(rec.ResponseBody, &cached); unmarshalErr == nil {
			return cached, nil
		}
	}

	if err := domain.ValidateTitle(req.Title); err != nil {
		return contracts.ProductResponse{}, err
	}
	if err := domain.ValidateDescription(req.Description); err != nil {
		return contracts.ProductResponse{}, err
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return contracts.ProductResponse{}, fmt.Errorf("%w: price must be a decimal", domain.ErrInvalidInput)
	}
	if err := domain.ValidatePrice(price); err != nil {
		return contracts.ProductResponse{}, err
	}
	currency := req.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	if err := domain.ValidateCurrency(currency); err != nil {
		return contracts.ProductResponse{}, err
	}
	fileType := domain.FileType(req.FileType)
	if err := domain.ValidateFileFields(fileType, req.FileRef, req.ExternalURL); err != nil {
		return contracts.ProductResponse{}, err
	}
	if req.SellerWalletBase != "" {
		if err := domain.ValidateWalletAddress(domain.ChainBase, req.SellerWalletBase); err != nil {
			return contracts.ProductResponse{}, err
		}
	}
	if req.SellerWalletSolana != "" {
		if err := domain.ValidateWalletAddress(domain.ChainSolana, req.SellerWalletSolana); err != nil {
			return contracts.ProductResponse{}, err
		}
	}

	if err := s.reserveIdempotency(ctx, idempotencyKey, req); err != nil {
		return contracts.ProductResponse{}, err
	}

	product, err := s.products.Create(ctx, ports.CreateProductParams{
		CreatorID:          creatorID,
		Title:              req.Title,
		Description:        req.Description,
		Price:              price,
		Currency:           currency,
		FileType:           fileType,
		FileRef:            req.FileRef,
		ExternalURL:        req.ExternalURL,
		FileSize:           req.FileSize,
		SellerWalletBase:   req.SellerWalletBase,
		SellerWalletSolana: req.SellerWalletSolana,
		CreatedAt:          s.nowFn(),
	})
	if err != nil {
		return contracts.ProductResponse{}, err
	}
	resp := productResponse(product)
	s.completeIdempotencyJSON(ctx, idempotencyKey, resp)
	return resp, nil
}

func (s *Service) GetProduct(ctx context.Context, productID uuid.UUID) (contracts.ProductResponse, error) {
	product, err := s.getProductCached(ctx, productID)
	if err != nil {
		return contracts.ProductResponse{}, err
	}
	return productResponse(product), nil
}

func (s *Service) UpdateProduct(ctx context.Context, creatorID, productID uuid.UUID, req contracts.UpdateProductRequest) (contracts.ProductResponse, error) {
	params := ports.UpdateProductParams{
		ProductID: productID,
		CreatorID: creatorID,
		UpdatedAt: s.nowFn(),
	}
	if req.Title != nil {
		if err := domain.ValidateTitle(*req.Title); err != nil {
			return contracts.ProductResponse{}, err
		}
		params.Title = req.Title
	}
	if req.Description != nil {
		if err := domain.ValidateDescription(*req.Description); err != nil {
			return contracts.ProductResponse{}, err
		}
		params.Description = req.Description
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			return contracts.ProductResponse{}, fmt.Errorf("%w: price must be a decimal", domain.ErrInvalidInput)
		}
		if err := domain.ValidatePrice(price); err != nil {
			return contracts.ProductResponse{}, err
		}
		params.Price = &price
	}
	if req.SellerWalletBase != nil {
		if err := domain.ValidateWalletAddress(domain.ChainBase, *req.SellerWalletBase); err != nil {
			return contracts.ProductResponse{}, err
		}
		params.SellerWalletBase = req.SellerWalletBase
	}
	if req.SellerWalletSolana != nil {
		if err := domain.ValidateWalletAddress(domain.ChainSolana, *req.SellerWalletSolana); err != nil {
			return contracts.ProductResponse{}, err
		}
		params.SellerWalletSolana = req.SellerWalletSolana
	}

	product, err := s.products.Update(ctx, params)
	if err != nil {
		return contracts.ProductResponse{}, err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, cacheKeyProduct(productID.String()))
	}
	return productResponse(product), nil
}

func (s *Service) SetProductPublished(ctx context.Context, creatorID, productID uuid.UUID, published bool) (contracts.ProductResponse, error) {
	product, err := s.products.SetPublished(ctx, productID, creatorID, published, s.nowFn())
	if err != nil {
		return contracts.ProductResponse{}, err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, cacheKeyProduct(productID.String()))
	}
	return productResponse(product), nil
}

func (s *Service) ListMyProducts(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]contracts.ProductResponse, error) {
	items, err := s.products.ListByCreator(ctx, creatorID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]contracts.ProductResponse, 0, len(items))
	for _, p := range items {
		out = append(out, productResponse(p))
	}
	return out, nil
}

func (s *Service) ListPublishedProducts(ctx context.Context, limit, offset int) ([]contracts.ProductResponse, error) {
	items, err := s.products.ListPublished(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]contracts.ProductResponse, 0, len(items))
	for _, p := range items {
		out = append(out, productResponse(p))
	}
	return out, nil
}

type cachedProduct struct {
	ProductID          string `json:"product_id"`
	CreatorID          string `json:"creator_id"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	Price              string `json:"price"`
	Currency           string `json:"currency"`
	FileType           string `json:"file_type"`
	FileRef            string `json:"file_ref"`
	ExternalURL        string `json:"external_url"`
	FileSize           int64  `json:"file_size"`
	Published          bool   `json:"published"`
	SellerWalletBase   string `json:"seller_wallet_base"`
	SellerWalletSolana string `json:"seller_wallet_solana"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

func (s *Service) getProductCached(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	key := cacheKeyProduct(productID.String())
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
			var cached cachedProduct
			if unmarshalErr := json.Unmarshal([]byte(raw), &cached); unmarshalErr == nil {
				if product, convErr := cached.toDomain(); convErr == nil {
					return product, nil
				}
			}
		}
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if s.cache != nil {
		raw, marshalErr := json.Marshal(fromDomainProduct(product))
		if marshalErr == nil {
			_ = s.cache.Set(ctx, key, string(raw), s.cfg.ProductCacheTTL)
		}
	}
	return product, nil
}

func fromDomainProduct(p domain.Product) cachedProduct {
	return cachedProduct{
		ProductID:          p.ProductID.String(),
		CreatorID:          p.CreatorID.String(),
		Title:              p.Title,
		Description:        p.Description,
		Price:              p.Price.String(),
		Currency:           p.Currency,
		FileType:           string(p.FileType),
		FileRef:            p.FileRef,
		ExternalURL:        p.ExternalURL,
		FileSize:           p.FileSize,
		Published:          p.Published,
		SellerWalletBase:   p.SellerWalletBase,
		SellerWalletSolana: p.SellerWalletSolana,
		CreatedAt:          p.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:          p.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (c cachedProduct) toDomain() (domain.Product, error) {
	productID, err := uuid.Parse(c.ProductID)
	if err != nil {
		return domain.Product{}, err
	}
	creatorID, err := uuid.Parse(c.CreatorID)
	if err != nil {
		return domain.Product{}, err
	}
	price, err := decimal.NewFromString(c.Price)
	if err != nil {
		return domain.Product{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, c.CreatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, c.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		ProductID:          productID,
		CreatorID:          creatorID,
		Title:              c.Title,
		Description:        c.Description,
		Price:              price,
		Currency:           c.Currency,
		FileType:           domain.FileType(c.FileType),
		FileRef:            c.FileRef,
		ExternalURL:        c.ExternalURL,
		FileSize:           c.FileSize,
		Published:          c.Published,
		SellerWalletBase:   c.SellerWalletBase,
		SellerWalletSolana: c.SellerWalletSolana,
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
	}, nil
}
