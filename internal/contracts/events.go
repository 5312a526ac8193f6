package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

type PaymentConfirmedPayload struct {
	TransactionID string `json:"transaction_id"`
	ProductID     string `json:"product_id"`
	BuyerWallet   string `json:"buyer_wallet"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Chain         string `json:"chain"`
	TxHash        string `json:"tx_hash"`
	ConfirmedAt   string `json:"confirmed_at"`
}

type AccessIssuedPayload struct {
	AccessID      string `json:"access_id"`
	TransactionID string `json:"transaction_id"`
	ProductID     string `json:"product_id"`
	BuyerWallet   string `json:"buyer_wallet"`
	ExpiresAt     string `json:"expires_at"`
	MaxDownloads  int    `json:"max_downloads"`
}

type DownloadConsumedPayload struct {
	AccessID      string `json:"access_id"`
	ProductID     string `json:"product_id"`
	DownloadCount int    `json:"download_count"`
	MaxDownloads  int    `json:"max_downloads"`
	ConsumedAt    string `json:"consumed_at"`
}

// SettlementConfirmedPayload is the payment-network confirmation as it
// arrives over the event bus, mirroring the webhook body.
type SettlementConfirmedPayload struct {
	TxHash      string `json:"tx_hash"`
	Chain       string `json:"chain"`
	Amount      string `json:"amount,omitempty"`
	ConfirmedAt string `json:"confirmed_at,omitempty"`
}

// WebhookEvent is the provider envelope delivered to the webhook endpoint.
// Type is the discriminant; unknown types are rejected at the boundary.
type WebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}
