package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forlarge/marketplace/internal/domain"
)

type CreateProductParams struct {
	CreatorID          uuid.UUID
	Title              string
	Description        string
	Price              decimal.Decimal
	Currency           string
	FileType           domain.FileType
	FileRef            string
	ExternalURL        string
	FileSize           int64
	SellerWalletBase   string
	SellerWalletSolana string
	CreatedAt          time.Time
}

type UpdateProductParams struct {
	ProductID          uuid.UUID
	CreatorID          uuid.UUID
	Title              *string
	Description        *string
	Price              *decimal.Decimal
	SellerWalletBase   *string
	SellerWalletSolana *string
	UpdatedAt          time.Time
}

type ProductRepository interface {
	Create(ctx context.Context, params CreateProductParams) (domain.Product, error)
	GetByID(ctx context.Context, productID uuid.UUID) (domain.Product, error)
	Update(ctx context.Context, params UpdateProductParams) (domain.Product, error)
	SetPublished(ctx context.Context, productID, creatorID uuid.UUID, published bool, now time.Time) (domain.Product, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]domain.Product, error)
	ListPublished(ctx context.Context, limit, offset int) ([]domain.Product, error)
}

type CreateTransactionParams struct {
	ProductID           uuid.UUID
	BuyerWalletAddress  string
	SellerWalletAddress string
	BuyerEmailEncrypted []byte
	Amount              decimal.Decimal
	Currency            string
	Chain               domain.Chain
	TxHash              string
	PlatformFee         decimal.Decimal
	CreatorAmount       decimal.Decimal
	CreatedAt           time.Time
}

type TransactionRepository interface {
	Create(ctx context.Context, params CreateTransactionParams) (domain.Transaction, error)
	GetByID(ctx context.Context, transactionID uuid.UUID) (domain.Transaction, error)
	GetByTxHash(ctx context.Context, txHash string) (domain.Transaction, error)
	// ConfirmByTxHash transitions pending to confirmed with a conditional
	// update. transitioned reports whether this call performed the
	// transition; re-delivery of a confirmation returns the row unchanged
	// with transitioned == false.
	ConfirmByTxHash(ctx context.Context, txHash string, confirmedAt time.Time) (tx domain.Transaction, transitioned bool, err error)
}

type CreateDownloadAccessParams struct {
	TransactionID      uuid.UUID
	ProductID          uuid.UUID
	BuyerWalletAddress string
	AccessToken        string
	CreatedAt          time.Time
	ExpiresAt          time.Time
	MaxDownloads       int
}

type DownloadAccessRepository interface {
	// Create inserts one access row per transaction. When a row already
	// exists for the transaction the existing row is returned and
	// created == false.
	Create(ctx context.Context, params CreateDownloadAccessParams) (access domain.DownloadAccess, created bool, err error)
	GetByToken(ctx context.Context, token string) (domain.DownloadAccess, error)
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (domain.DownloadAccess, error)
	// ConsumeOnce atomically increments download_count by one, guarded by
	// the expiry and the quota in the same storage operation. It returns
	// the post-increment row; consumed == false means the guard rejected
	// the increment and the caller classifies the failure from the row.
	ConsumeOnce(ctx context.Context, token string, now time.Time) (access domain.DownloadAccess, consumed bool, err error)
}

type OutboxEvent struct {
	EventID          uuid.UUID
	EventType        string
	PartitionKey     string
	PartitionKeyPath string
	Payload          []byte
	OccurredAt       time.Time
	SchemaVersion    string
	TraceID          string
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	LastError    *string
	LastErrorAt  *time.Time
	FirstSeenAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	Status       string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}
