package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forlarge/marketplace/internal/domain"
	"github.com/forlarge/marketplace/internal/ports"
)

// issueAccess mints the download token for a confirmed transaction. The
// unique constraint on transaction_id makes issuance idempotent: when both
// settlement paths race, the loser gets the winner's row back.
func (s *Service) issueAccess(ctx context.Context, tx domain.Transaction) (IssuedAccess, error) {
	token, err := generateAccessToken()
	if err != nil {
		return IssuedAccess{}, err
	}
	now := s.nowFn()
	access, created, err := s.access.Create(ctx, ports.CreateDownloadAccessParams{
		TransactionID:      tx.TransactionID,
		ProductID:          tx.ProductID,
		BuyerWalletAddress: tx.BuyerWalletAddress,
		AccessToken:        token,
		CreatedAt:          now,
		ExpiresAt:          now.Add(s.cfg.AccessTokenTTL),
		MaxDownloads:       s.cfg.DefaultMaxDownloads,
	})
	if err != nil {
		return IssuedAccess{}, err
	}
	if created {
		if err := s.enqueueDomainEvent(ctx, domain.EventAccessIssued, "data.transaction_id", tx.TransactionID.String(), accessIssuedPayload(access)); err != nil {
			return IssuedAccess{}, err
		}
	}
	return IssuedAccess{Access: access, Reissue: !created}, nil
}

// ValidateAccess is the read-only token check backing the download page.
// Checks run in order: existence, expiry, quota. No state changes; callers
// must re-validate through ConsumeDownload before releasing the file.
func (s *Service) ValidateAccess(ctx context.Context, token string) (DownloadState, error) {
	if strings.TrimSpace(token) == "" {
		return DownloadState{}, fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}
	access, err := s.access.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return DownloadState{}, domain.ErrInvalidToken
		}
		return DownloadState{}, err
	}
	now := s.nowFn()
	if err := access.CheckUsable(now); err != nil {
		return DownloadState{}, err
	}
	product, err := s.getProductCached(ctx, access.ProductID)
	if err != nil {
		return DownloadState{}, err
	}
	return DownloadState{
		Product:            product,
		RemainingDownloads: access.RemainingDownloads(),
		RemainingTime:      access.RemainingTime(now),
		ExpiresAt:          access.ExpiresAt,
	}, nil
}

// ConsumeDownload spends one download. The quota check and the increment
// are a single guarded storage update, so two concurrent calls on the last
// remaining slot cannot both succeed.
func (s *Service) ConsumeDownload(ctx context.Context, token, clientIP string) (ConsumeResult, error) {
	if strings.TrimSpace(token) == "" {
		return ConsumeResult{}, fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}
	if err := s.enforceConsumeRateLimit(ctx, clientIP); err != nil {
		return ConsumeResult{}, err
	}

	now := s.nowFn()
	access, consumed, err := s.access.ConsumeOnce(ctx, token, now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ConsumeResult{}, domain.ErrInvalidToken
		}
		return ConsumeResult{}, err
	}
	if !consumed {
		// Guard rejected the increment; re-read state tells us why.
		if usableErr := access.CheckUsable(now); usableErr != nil {
			return ConsumeResult{}, usableErr
		}
		return ConsumeResult{}, domain.ErrStorageUnavailable
	}

	product, err := s.getProductCached(ctx, access.ProductID)
	if err != nil {
		return ConsumeResult{}, err
	}
	if err := s.enqueueDomainEvent(ctx, domain.EventDownloadConsumed, "data.access_id", access.AccessID.String(), downloadConsumedPayload(access, now)); err != nil {
		return ConsumeResult{}, err
	}
	return ConsumeResult{
		FileLocator:        product.FileLocator(),
		FileType:           product.FileType,
		RemainingDownloads: access.RemainingDownloads(),
	}, nil
}

func (s *Service) enforceConsumeRateLimit(ctx context.Context, clientIP string) error {
	if s.cache == nil || clientIP == "" {
		return nil
	}
	count, err := s.cache.IncrWithTTL(ctx, consumeRateKey(clientIP), s.cfg.ConsumeRateWindow)
	if err != nil {
		// Rate limiting is advisory; a cache outage must not block paid
		// downloads.
		return nil
	}
	if count > int64(s.cfg.ConsumeRateLimit) {
		return domain.ErrRateLimitExceeded
	}
	return nil
}
