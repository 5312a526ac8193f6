package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/forlarge/marketplace/internal/contracts"
	"github.com/forlarge/marketplace/internal/domain"
	"github.com/forlarge/marketplace/internal/ports"
)

// generateAccessToken returns a 32-char URL-safe bearer token carrying
// 192 bits of entropy, far beyond brute-force reach within the 24h window.
func generateAccessToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashRequest(v any) string {
	raw, _ := json.Marshal(v)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// getIdempotent returns the stored response for a completed idempotency key,
// or nil when the key is unused.
func (s *Service) getIdempotent(ctx context.Context, key string, request any) (*ports.IdempotencyRecord, error) {
	if key == "" {
		return nil, nil
	}
	rec, err := s.idempotency.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	if rec.RequestHash != hashRequest(request) {
		return nil, fmt.Errorf("%w: key reused with a different request", domain.ErrIdempotencyConflict)
	}
	if rec.Status != "completed" {
		return nil, fmt.Errorf("%w: request still in flight", domain.ErrIdempotencyConflict)
	}
	return rec, nil
}

func (s *Service) reserveIdempotency(ctx context.Context, key string, request any) error {
	if key == "" {
		return nil
	}
	err := s.idempotency.Reserve(ctx, key, hashRequest(request), s.nowFn().Add(s.cfg.IdempotencyTTL))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIdempotencyConflict, err)
	}
	return nil
}

func (s *Service) completeIdempotencyJSON(ctx context.Context, key string, response any) {
	if key == "" {
		return
	}
	body, err := json.Marshal(response)
	if err != nil {
		return
	}
	_ = s.idempotency.Complete(ctx, key, http.StatusOK, body, s.nowFn())
}

func (s *Service) enqueueDomainEvent(ctx context.Context, eventType, partitionKeyPath, partitionKey string, data any) error {
	occurredAt := s.nowFn()
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	envelope := map[string]any{
		"event_id":           uuid.NewString(),
		"event_type":         eventType,
		"event_class":        domain.CanonicalEventClassDomain,
		"occurred_at":        occurredAt,
		"partition_key_path": partitionKeyPath,
		"partition_key":      partitionKey,
		"source_service":     s.cfg.ServiceName,
		"trace_id":           "",
		"schema_version":     "1.0",
		"data":               json.RawMessage(raw),
	}
	payload, _ := json.Marshal(envelope)
	return s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:          uuid.New(),
		EventType:        eventType,
		PartitionKey:     partitionKey,
		PartitionKeyPath: partitionKeyPath,
		Payload:          payload,
		OccurredAt:       occurredAt,
		SchemaVersion:    "1.0",
	})
}

func accessIssuedPayload(access domain.DownloadAccess) contracts.AccessIssuedPayload {
	return contracts.AccessIssuedPayload{
		AccessID:      access.AccessID.String(),
		TransactionID: access.TransactionID.String(),
		ProductID:     access.ProductID.String(),
		BuyerWallet:   access.BuyerWalletAddress,
		ExpiresAt:     access.ExpiresAt.Format(time.RFC3339),
		MaxDownloads:  access.MaxDownloads,
	}
}

func downloadConsumedPayload(access domain.DownloadAccess, at time.Time) contracts.DownloadConsumedPayload {
	return contracts.DownloadConsumedPayload{
		AccessID:      access.AccessID.String(),
		ProductID:     access.ProductID.String(),
		DownloadCount: access.DownloadCount,
		MaxDownloads:  access.MaxDownloads,
		ConsumedAt:    at.Format(time.RFC3339),
	}
}

func cacheKeyProduct(productID string) string {
	return "marketplace:product:" + productID
}

func consumeRateKey(ip string) string {
	return "marketplace:consume:rate:" + ip
}
