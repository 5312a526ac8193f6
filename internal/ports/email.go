package ports

import "context"

type PaymentReceipt struct {
	To           string
	ProductTitle string
	Amount       string
	Currency     string
	DownloadURL  string
}

type SaleNotification struct {
	To           string
	ProductTitle string
	Amount       string
	Currency     string
	BuyerWallet  string
}

type EmailSender interface {
	SendPaymentReceipt(ctx context.Context, receipt PaymentReceipt) error
	SendSaleNotification(ctx context.Context, notice SaleNotification) error
}
