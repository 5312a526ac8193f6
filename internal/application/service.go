package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/forlarge/marketplace/internal/ports"
)

type Config struct {
	ServiceName string

	PlatformFeePercent  decimal.Decimal
	DefaultCurrency     string
	AccessTokenTTL      time.Duration
	DefaultMaxDownloads int

	ProductCacheTTL    time.Duration
	ConsumeRateLimit   int
	ConsumeRateWindow  time.Duration
	IdempotencyTTL     time.Duration
	EventDedupTTL      time.Duration
	DownloadPageBase   string
}

type Service struct {
	cfg          Config
	products     ports.ProductRepository
	transactions ports.TransactionRepository
	access       ports.DownloadAccessRepository
	outbox       ports.OutboxRepository
	eventDedup   ports.EventDedupRepository
	idempotency  ports.IdempotencyRepository
	builders     map[string]ports.PaymentBuilder
	cache        ports.Cache
	email        ports.EmailSender
	encryption   ports.Encryption
	nowFn        func() time.Time
}

type Dependencies struct {
	Config       Config
	Products     ports.ProductRepository
	Transactions ports.TransactionRepository
	Access       ports.DownloadAccessRepository
	Outbox       ports.OutboxRepository
	EventDedup   ports.EventDedupRepository
	Idempotency  ports.IdempotencyRepository
	Builders     []ports.PaymentBuilder
	Cache        ports.Cache
	Email        ports.EmailSender
	Encryption   ports.Encryption
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "forlarge-marketplace"
	}
	if cfg.PlatformFeePercent.IsZero() {
		cfg.PlatformFeePercent = decimal.NewFromFloat(0.05)
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "USDC"
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 24 * time.Hour
	}
	if cfg.DefaultMaxDownloads <= 0 {
		cfg.DefaultMaxDownloads = 5
	}
	if cfg.ProductCacheTTL <= 0 {
		cfg.ProductCacheTTL = 5 * time.Minute
	}
	if cfg.ConsumeRateLimit <= 0 {
		cfg.ConsumeRateLimit = 30
	}
	if cfg.ConsumeRateWindow <= 0 {
		cfg.ConsumeRateWindow = time.Minute
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}

	builders := make(map[string]ports.PaymentBuilder, len(deps.Builders))
	for _, b := range deps.Builders {
		builders[string(b.Chain())] = b
	}

	return &Service{
		cfg:          cfg,
		products:     deps.Products,
		transactions: deps.Transactions,
		access:       deps.Access,
		outbox:       deps.Outbox,
		eventDedup:   deps.EventDedup,
		idempotency:  deps.Idempotency,
		builders:     builders,
		cache:        deps.Cache,
		email:        deps.Email,
		encryption:   deps.Encryption,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}
