package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string

	MaxDBConns               int32
	KafkaConsumerGroup       string
	TopicPaymentConfirmed    string
	TopicAccessIssued        string
	TopicDownloadConsumed    string
	TopicSettlementConfirmed string

	BaseRPCURL           string
	BaseChainID          uint64
	BaseUSDCAddress      string
	SolanaRPCURL         string
	SolanaUSDCMint       string
	PlatformWalletSolana string
	PlatformFeePercent   float64

	AccessTokenTTL      time.Duration
	DefaultMaxDownloads int
	DefaultCurrency     string
	DownloadPageBase    string

	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	ConsumerPollInterval time.Duration

	ProductCacheTTL   time.Duration
	ConsumeRateLimit  int
	ConsumeRateWindow time.Duration
	IdempotencyTTL    time.Duration
	EventDedupTTL     time.Duration

	WebhookSecret   string
	JWTPublicKeyPEM string
	EncryptionSeed  string
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL              string   `yaml:"postgres_url"`
		RedisURL                 string   `yaml:"redis_url"`
		KafkaBrokers             []string `yaml:"kafka_brokers"`
		KafkaConsumerGroup       string   `yaml:"kafka_consumer_group"`
		TopicPaymentConfirmed    string   `yaml:"topic_payment_confirmed"`
		TopicAccessIssued        string   `yaml:"topic_access_issued"`
		TopicDownloadConsumed    string   `yaml:"topic_download_consumed"`
		TopicSettlementConfirmed string   `yaml:"topic_settlement_confirmed"`
	} `yaml:"dependencies"`
	Chains struct {
		BaseRPCURL           string  `yaml:"base_rpc_url"`
		BaseChainID          uint64  `yaml:"base_chain_id"`
		BaseUSDCAddress      string  `yaml:"base_usdc_address"`
		SolanaRPCURL         string  `yaml:"solana_rpc_url"`
		SolanaUSDCMint       string  `yaml:"solana_usdc_mint"`
		PlatformWalletSolana string  `yaml:"platform_wallet_solana"`
		PlatformFeePercent   float64 `yaml:"platform_fee_percent"`
	} `yaml:"chains"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                "forlarge-marketplace",
		HTTPPort:                 8080,
		GRPCPort:                 9090,
		MaxDBConns:               20,
		KafkaConsumerGroup:       "forlarge-marketplace",
		TopicPaymentConfirmed:    "marketplace.payment.confirmed",
		TopicAccessIssued:        "marketplace.access.issued",
		TopicDownloadConsumed:    "marketplace.download.consumed",
		TopicSettlementConfirmed: "settlement.payment.confirmed",
		BaseChainID:              8453,
		BaseUSDCAddress:          "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		SolanaUSDCMint:           "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		PlatformFeePercent:       0.05,
		AccessTokenTTL:           24 * time.Hour,
		DefaultMaxDownloads:      5,
		DefaultCurrency:          "USDC",
		OutboxPollInterval:       2 * time.Second,
		OutboxBatchSize:          100,
		ConsumerPollInterval:     2 * time.Second,
		ProductCacheTTL:          5 * time.Minute,
		ConsumeRateLimit:         30,
		ConsumeRateWindow:        time.Minute,
		IdempotencyTTL:           7 * 24 * time.Hour,
		EventDedupTTL:            7 * 24 * time.Hour,
		EncryptionSeed:           "forlarge-default-seed",
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaConsumerGroup != "" {
			cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
		}
		if f.Dependencies.TopicPaymentConfirmed != "" {
			cfg.TopicPaymentConfirmed = f.Dependencies.TopicPaymentConfirmed
		}
		if f.Dependencies.TopicAccessIssued != "" {
			cfg.TopicAccessIssued = f.Dependencies.TopicAccessIssued
		}
		if f.Dependencies.TopicDownloadConsumed != "" {
			cfg.TopicDownloadConsumed = f.Dependencies.TopicDownloadConsumed
		}
		if f.Dependencies.TopicSettlementConfirmed != "" {
			cfg.TopicSettlementConfirmed = f.Dependencies.TopicSettlementConfirmed
		}
		if f.Chains.BaseRPCURL != "" {
			cfg.BaseRPCURL = f.Chains.BaseRPCURL
		}
		if f.Chains.BaseChainID > 0 {
			cfg.BaseChainID = f.Chains.BaseChainID
		}
		if f.Chains.BaseUSDCAddress != "" {
			cfg.BaseUSDCAddress = f.Chains.BaseUSDCAddress
		}
		if f.Chains.SolanaRPCURL != "" {
			cfg.SolanaRPCURL = f.Chains.SolanaRPCURL
		}
		if f.Chains.SolanaUSDCMint != "" {
			cfg.SolanaUSDCMint = f.Chains.SolanaUSDCMint
		}
		if f.Chains.PlatformWalletSolana != "" {
			cfg.PlatformWalletSolana = f.Chains.PlatformWalletSolana
		}
		if f.Chains.PlatformFeePercent > 0 {
			cfg.PlatformFeePercent = f.Chains.PlatformFeePercent
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.TopicPaymentConfirmed = envOrDefault("TOPIC_PAYMENT_CONFIRMED", cfg.TopicPaymentConfirmed)
	cfg.TopicAccessIssued = envOrDefault("TOPIC_ACCESS_ISSUED", cfg.TopicAccessIssued)
	cfg.TopicDownloadConsumed = envOrDefault("TOPIC_DOWNLOAD_CONSUMED", cfg.TopicDownloadConsumed)
	cfg.TopicSettlementConfirmed = envOrDefault("TOPIC_SETTLEMENT_CONFIRMED", cfg.TopicSettlementConfirmed)
	cfg.BaseRPCURL = envOrDefault("BASE_RPC_URL", cfg.BaseRPCURL)
	cfg.BaseChainID = uint64(envInt("BASE_CHAIN_ID", int(cfg.BaseChainID)))
	cfg.BaseUSDCAddress = envOrDefault("BASE_USDC_ADDRESS", cfg.BaseUSDCAddress)
	cfg.SolanaRPCURL = envOrDefault("SOLANA_RPC_URL", cfg.SolanaRPCURL)
	cfg.SolanaUSDCMint = envOrDefault("SOLANA_USDC_MINT", cfg.SolanaUSDCMint)
	cfg.PlatformWalletSolana = envOrDefault("PLATFORM_WALLET_SOLANA", cfg.PlatformWalletSolana)
	cfg.PlatformFeePercent = envFloat("PLATFORM_FEE_PERCENT", cfg.PlatformFeePercent)
	cfg.WebhookSecret = envOrDefault("WEBHOOK_SECRET", cfg.WebhookSecret)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.EncryptionSeed = envOrDefault("ENCRYPTION_SEED", cfg.EncryptionSeed)
	cfg.DownloadPageBase = envOrDefault("DOWNLOAD_PAGE_BASE", cfg.DownloadPageBase)
	cfg.DefaultCurrency = envOrDefault("DEFAULT_CURRENCY", cfg.DefaultCurrency)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.AccessTokenTTL = time.Duration(envInt("ACCESS_TOKEN_TTL_HOURS", int(cfg.AccessTokenTTL.Hours()))) * time.Hour
	cfg.DefaultMaxDownloads = envInt("DEFAULT_MAX_DOWNLOADS", cfg.DefaultMaxDownloads)
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.ProductCacheTTL = time.Duration(envInt("PRODUCT_CACHE_SECONDS", int(cfg.ProductCacheTTL.Seconds()))) * time.Second
	cfg.ConsumeRateLimit = envInt("CONSUME_RATE_LIMIT", cfg.ConsumeRateLimit)
	cfg.ConsumeRateWindow = time.Duration(envInt("CONSUME_RATE_WINDOW_SECONDS", int(cfg.ConsumeRateWindow.Seconds()))) * time.Second
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.WebhookSecret == "" {
		return Config{}, fmt.Errorf("missing WEBHOOK_SECRET")
	}
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	items := strings.Split(raw, ",")
	return trimNonEmpty(items)
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
