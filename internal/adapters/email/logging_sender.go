package email

import (
	"context"
	"log/slog"

	"github.com/forlarge/marketplace/internal/ports"
)

// LoggingSender records outbound mail instead of delivering it. It stands
// in for the transactional email provider in local and test environments.
type LoggingSender struct {
	logger *slog.Logger
}

func NewLoggingSender(logger *slog.Logger) *LoggingSender {
	return &LoggingSender{logger: logger}
}

func (s *LoggingSender) SendPaymentReceipt(ctx context.Context, receipt ports.PaymentReceipt) error {
	s.logger.InfoContext(ctx, "payment receipt email",
		"module", "email.sender",
		"layer", "adapter",
		"operation", "send_receipt",
		"outcome", "success",
		"to", receipt.To,
		"product_title", receipt.ProductTitle,
		"amount", receipt.Amount,
		"currency", receipt.Currency,
	)
	return nil
}

func (s *LoggingSender) SendSaleNotification(ctx context.Context, notice ports.SaleNotification) error {
	s.logger.InfoContext(ctx, "sale notification email",
		"module", "email.sender",
		"layer", "adapter",
		"operation", "send_sale_notification",
		"outcome", "success",
		"to", notice.To,
		"product_title", notice.ProductTitle,
		"amount", notice.Amount,
		"currency", notice.Currency,
	)
	return nil
}

var _ ports.EmailSender = (*LoggingSender)(nil)
