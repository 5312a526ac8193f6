package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/forlarge/marketplace/internal/contracts"
	"github.com/forlarge/marketplace/internal/domain"
	"github.com/forlarge/marketplace/internal/ports"
)

type settleNotify struct {
	buyerEmail   string
	creatorEmail string
	productTitle string
}

// settleByTxHash is the single settlement funnel shared by the client
// success callback, the webhook, and the event-bus consumer. It transitions
// the transaction pending -> confirmed (conditional update, repeat
// deliveries are no-ops) and issues the download access exactly once per
// transaction.
func (s *Service) settleByTxHash(ctx context.Context, txHash string, notify settleNotify) (IssuedAccess, error) {
	now := s.nowFn()
	tx, transitioned, err := s.transactions.ConfirmByTxHash(ctx, txHash, now)
	if err != nil {
		return IssuedAccess{}, err
	}

	issued, err := s.issueAccess(ctx, tx)
	if err != nil {
		// The buyer paid but holds no access token. Surface the failure so
		// the caller can retry; never report success here.
		return IssuedAccess{}, err
	}

	if transitioned {
		if err := s.enqueueDomainEvent(ctx, domain.EventPaymentConfirmed, "data.transaction_id", tx.TransactionID.String(), contracts.PaymentConfirmedPayload{
			TransactionID: tx.TransactionID.String(),
			ProductID:     tx.ProductID.String(),
			BuyerWallet:   tx.BuyerWalletAddress,
			Amount:        tx.Amount.String(),
			Currency:      tx.Currency,
			Chain:         string(tx.Chain),
			TxHash:        tx.TxHash,
			ConfirmedAt:   now.Format(time.RFC3339),
		}); err != nil {
			return IssuedAccess{}, err
		}
		s.sendSettlementEmails(ctx, tx, issued.Access, notify)
	}

	return issued, nil
}

// sendSettlementEmails notifies buyer and creator. Delivery failure is
// logged and swallowed: a missing notification must not roll back an
// already-confirmed payment or an already-issued token.
func (s *Service) sendSettlementEmails(ctx context.Context, tx domain.Transaction, access domain.DownloadAccess, notify settleNotify) {
	if s.email == nil {
		return
	}
	buyerEmail := notify.buyerEmail
	if buyerEmail == "" && len(tx.BuyerEmailEncrypted) > 0 && s.encryption != nil {
		if decrypted, err := s.encryption.Decrypt(tx.TxHash, tx.BuyerEmailEncrypted); err == nil {
			buyerEmail = decrypted
		}
	}
	if buyerEmail != "" {
		err := s.email.SendPaymentReceipt(ctx, ports.PaymentReceipt{
			To:           buyerEmail,
			ProductTitle: notify.productTitle,
			Amount:       tx.Amount.String(),
			Currency:     tx.Currency,
			DownloadURL:  s.cfg.DownloadPageBase + "/" + access.AccessToken,
		})
		if err != nil {
			slog.Default().WarnContext(ctx, "payment receipt email failed",
				"module", "application.settlement",
				"layer", "application",
				"operation", "send_receipt",
				"outcome", "failure",
				"transaction_id", tx.TransactionID.String(),
				"error", err,
			)
		}
	}
	if notify.creatorEmail != "" {
		err := s.email.SendSaleNotification(ctx, ports.SaleNotification{
			To:           notify.creatorEmail,
			ProductTitle: notify.productTitle,
			Amount:       tx.CreatorAmount.String(),
			Currency:     tx.Currency,
			BuyerWallet:  tx.BuyerWalletAddress,
		})
		if err != nil {
			slog.Default().WarnContext(ctx, "sale notification email failed",
				"module", "application.settlement",
				"layer", "application",
				"operation", "send_sale_notification",
				"outcome", "failure",
				"transaction_id", tx.TransactionID.String(),
				"error", err,
			)
		}
	}
}

// HandleSettlementWebhook processes a provider confirmation delivered over
// HTTP. Signature verification happens at the transport edge; this method
// validates the envelope shape and rejects unknown event types explicitly.
func (s *Service) HandleSettlementWebhook(ctx context.Context, event contracts.WebhookEvent) error {
	switch event.Type {
	case "payment.confirmed", "transaction.confirmed":
	default:
		return domain.ErrUnsupportedEvent
	}
	var payload contracts.SettlementConfirmedPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedEnvelope, err)
	}
	if payload.TxHash == "" {
		return domain.ErrMalformedEnvelope
	}
	_, err := s.settleByTxHash(ctx, payload.TxHash, settleNotify{})
	return err
}
