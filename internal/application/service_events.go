package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/forlarge/marketplace/internal/contracts"
	"github.com/forlarge/marketplace/internal/domain"
)

// HandleSettlementEvent processes a payment-network confirmation delivered
// over the event bus. Delivery is at-least-once, so the envelope is deduped
// before the settlement funnel runs; the funnel itself is also idempotent.
func (s *Service) HandleSettlementEvent(ctx context.Context, payload []byte) error {
	var event contracts.EventEnvelope
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedEnvelope, err)
	}
	if event.EventType != domain.EventSettlementConfirmed {
		return domain.ErrUnsupportedEvent
	}
	if event.EventClass != "" && event.EventClass != domain.CanonicalEventClassDomain {
		return domain.ErrUnsupportedEvent
	}
	if err := validateDomainEventEnvelope(event, domain.EventSettlementConfirmed, "data.tx_hash"); err != nil {
		return err
	}

	now := s.nowFn()
	dup, err := s.eventDedup.IsDuplicate(ctx, event.EventID, now)
	if err != nil {
		return err
	}
	if dup {
		return nil
	}

	var data contracts.SettlementConfirmedPayload
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("%w: decode settlement payload: %v", domain.ErrMalformedEnvelope, err)
	}
	if data.TxHash == "" {
		return fmt.Errorf("%w: tx_hash missing from settlement payload", domain.ErrMalformedEnvelope)
	}

	if _, err := s.settleByTxHash(ctx, data.TxHash, settleNotify{}); err != nil {
		return err
	}
	return s.eventDedup.MarkProcessed(ctx, event.EventID, event.EventType, now.Add(s.cfg.EventDedupTTL))
}

func validateDomainEventEnvelope(event contracts.EventEnvelope, expectedType, expectedKeyPath string) error {
	if event.EventID == "" {
		return fmt.Errorf("%w: event_id is required", domain.ErrMalformedEnvelope)
	}
	if event.EventType != expectedType {
		return fmt.Errorf("%w: unexpected event_type %q", domain.ErrMalformedEnvelope, event.EventType)
	}
	if event.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurred_at is required", domain.ErrMalformedEnvelope)
	}
	if event.PartitionKeyPath != expectedKeyPath {
		return fmt.Errorf("%w: partition_key_path must be %q", domain.ErrMalformedEnvelope, expectedKeyPath)
	}
	if event.PartitionKey == "" {
		return fmt.Errorf("%w: partition_key is required", domain.ErrMalformedEnvelope)
	}
	if len(event.Data) == 0 {
		return fmt.Errorf("%w: data is required", domain.ErrMalformedEnvelope)
	}
	return nil
}
