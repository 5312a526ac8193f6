package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type productModel struct {
	ProductID          uuid.UUID       `gorm:"column:product_id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID          uuid.UUID       `gorm:"column:creator_id"`
	Title              string          `gorm:"column:title"`
	Description        string          `gorm:"column:description"`
	Price              decimal.Decimal `gorm:"column:price;type:numeric(18,6)"`
	Currency           string          `gorm:"column:currency"`
	FileType           string          `gorm:"column:file_type"`
	FileRef            string          `gorm:"column:file_ref"`
	ExternalURL        string          `gorm:"column:external_url"`
	FileSize           int64           `gorm:"column:file_size"`
	Published          bool            `gorm:"column:published"`
	SellerWalletBase   string          `gorm:"column:seller_wallet_base"`
	SellerWalletSolana string          `gorm:"column:seller_wallet_solana"`
	CreatedAt          time.Time       `gorm:"column:created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at"`
}

func (productModel) TableName() string { return "products" }

type transactionModel struct {
	TransactionID       uuid.UUID       `gorm:"column:transaction_id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID           uuid.UUID       `gorm:"column:product_id"`
	BuyerWalletAddress  string          `gorm:"column:buyer_wallet_address"`
	SellerWalletAddress string          `gorm:"column:seller_wallet_address"`
	BuyerEmailEncrypted []byte          `gorm:"column:buyer_email_encrypted"`
	Amount              decimal.Decimal `gorm:"column:amount;type:numeric(18,6)"`
	Currency            string          `gorm:"column:currency"`
	Chain               string          `gorm:"column:chain"`
	TxHash              string          `gorm:"column:tx_hash"`
	Status              string          `gorm:"column:status"`
	PlatformFee         decimal.Decimal `gorm:"column:platform_fee;type:numeric(18,6)"`
	CreatorAmount       decimal.Decimal `gorm:"column:creator_amount;type:numeric(18,6)"`
	ConfirmedAt         *time.Time      `gorm:"column:confirmed_at"`
	CreatedAt           time.Time       `gorm:"column:created_at"`
}

func (transactionModel) TableName() string { return "transactions" }

type downloadAccessModel struct {
	AccessID           uuid.UUID `gorm:"column:access_id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID      uuid.UUID `gorm:"column:transaction_id"`
	ProductID          uuid.UUID `gorm:"column:product_id"`
	BuyerWalletAddress string    `gorm:"column:buyer_wallet_address"`
	AccessToken        string    `gorm:"column:access_token"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	ExpiresAt          time.Time `gorm:"column:expires_at"`
	MaxDownloads       int       `gorm:"column:max_downloads"`
	DownloadCount      int       `gorm:"column:download_count"`
}

func (downloadAccessModel) TableName() string { return "download_access" }

type marketplaceOutboxModel struct {
	OutboxID         uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType        string     `gorm:"column:event_type"`
	PartitionKey     string     `gorm:"column:partition_key"`
	PartitionKeyPath string     `gorm:"column:partition_key_path"`
	Payload          string     `gorm:"column:payload"`
	SchemaVersion    string     `gorm:"column:schema_version"`
	TraceID          string     `gorm:"column:trace_id"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	FirstSeenAt      time.Time  `gorm:"column:first_seen_at"`
	PublishedAt      *time.Time `gorm:"column:published_at"`
	RetryCount       int        `gorm:"column:retry_count"`
	LastError        *string    `gorm:"column:last_error"`
	LastErrorAt      *time.Time `gorm:"column:last_error_at"`
}

func (marketplaceOutboxModel) TableName() string { return "marketplace_outbox" }

type marketplaceIdempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (marketplaceIdempotencyModel) TableName() string { return "marketplace_idempotency" }

type marketplaceEventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (marketplaceEventDedupModel) TableName() string { return "marketplace_event_dedup" }
