package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/forlarge/marketplace/internal/adapters/cache"
	chainadapter "github.com/forlarge/marketplace/internal/adapters/chain"
	"github.com/forlarge/marketplace/internal/adapters/email"
	eventadapter "github.com/forlarge/marketplace/internal/adapters/events"
	httpadapter "github.com/forlarge/marketplace/internal/adapters/http"
	"github.com/forlarge/marketplace/internal/adapters/postgres"
	"github.com/forlarge/marketplace/internal/adapters/security"
	"github.com/forlarge/marketplace/internal/application"
	"github.com/forlarge/marketplace/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	outbox     *eventadapter.OutboxWorker
	consumer   *eventadapter.ConsumerWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	cacheStore := cache.NewRedisCache(redisClient)

	feePercent := decimal.NewFromFloat(cfg.PlatformFeePercent)
	var builders []ports.PaymentBuilder
	var closers []io.Closer

	baseBuilder, err := chainadapter.NewBaseBuilder(ctx, chainadapter.BaseConfig{
		USDCAddress: cfg.BaseUSDCAddress,
		ChainID:     cfg.BaseChainID,
		RPCURL:      cfg.BaseRPCURL,
		FeePercent:  feePercent,
	})
	if err != nil {
		logger.WarnContext(ctx, "base payment builder disabled", "error", err)
	} else {
		builders = append(builders, baseBuilder)
		closers = append(closers, baseBuilder)
	}

	if cfg.SolanaRPCURL == "" || cfg.PlatformWalletSolana == "" {
		logger.WarnContext(ctx, "solana payment builder disabled, missing rpc url or platform wallet")
	} else {
		solanaBuilder, solErr := chainadapter.NewSolanaBuilder(chainadapter.SolanaConfig{
			USDCMint:       cfg.SolanaUSDCMint,
			PlatformWallet: cfg.PlatformWalletSolana,
			RPCURL:         cfg.SolanaRPCURL,
			FeePercent:     feePercent,
		})
		if solErr != nil {
			logger.WarnContext(ctx, "solana payment builder disabled", "error", solErr)
		} else {
			builders = append(builders, solanaBuilder)
		}
	}

	var verifier ports.TokenVerifier
	if cfg.JWTPublicKeyPEM != "" {
		verifier, err = security.NewJWTVerifier(cfg.JWTPublicKeyPEM)
	} else {
		logger.WarnContext(ctx, "no jwt public key configured, using ephemeral verifier")
		verifier, err = security.NewEphemeralJWTVerifier()
	}
	if err != nil {
		_ = redisClient.Close()
		_ = sqlDB.Close()
		return nil, err
	}

	repos := postgres.NewRepositories(db)
	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:         cfg.ServiceID,
			PlatformFeePercent:  feePercent,
			DefaultCurrency:     cfg.DefaultCurrency,
			AccessTokenTTL:      cfg.AccessTokenTTL,
			DefaultMaxDownloads: cfg.DefaultMaxDownloads,
			ProductCacheTTL:     cfg.ProductCacheTTL,
			ConsumeRateLimit:    cfg.ConsumeRateLimit,
			ConsumeRateWindow:   cfg.ConsumeRateWindow,
			IdempotencyTTL:      cfg.IdempotencyTTL,
			EventDedupTTL:       cfg.EventDedupTTL,
			DownloadPageBase:    cfg.DownloadPageBase,
		},
		Products:     repos.Products,
		Transactions: repos.Transactions,
		Access:       repos.Access,
		Outbox:       repos.Outbox,
		EventDedup:   repos.EventDedup,
		Idempotency:  repos.Idempotency,
		Builders:     builders,
		Cache:        cacheStore,
		Email:        email.NewLoggingSender(logger),
		Encryption:   security.NewAESGCMEncryption(cfg.EncryptionSeed),
	})

	handler := httpadapter.NewHandler(service, verifier, security.NewHMACWebhookVerifier(cfg.WebhookSecret))
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = redisClient.Close()
		_ = sqlDB.Close()
		return nil, err
	}

	publisher := ports.EventPublisher(eventadapter.NewLoggingPublisher(logger))
	consumerAdapter := eventadapter.Consumer(eventadapter.NewNoopConsumer())
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			"marketplace.payment.confirmed": cfg.TopicPaymentConfirmed,
			"marketplace.access.issued":     cfg.TopicAccessIssued,
			"marketplace.download.consumed": cfg.TopicDownloadConsumed,
		})
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			closers = append(closers, kafkaPublisher)
		}

		kafkaConsumer, conErr := eventadapter.NewKafkaConsumer(
			cfg.KafkaBrokers,
			cfg.KafkaConsumerGroup,
			[]string{cfg.TopicSettlementConfirmed},
		)
		if conErr != nil {
			logger.WarnContext(ctx, "kafka consumer disabled, using noop consumer", "error", conErr)
		} else {
			consumerAdapter = kafkaConsumer
			closers = append(closers, kafkaConsumer)
		}
	}
	outbox := eventadapter.NewOutboxWorker(logger, repos.Outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	consumer := eventadapter.NewConsumerWorker(logger, consumerAdapter, service, cfg.ConsumerPollInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		outbox:     outbox,
		consumer:   consumer,
		cleanupFn: func(ctx context.Context) {
			for _, closer := range closers {
				_ = closer.Close()
			}
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func Build(ctx context.Context, configPath string) (*Runtime, error) {
	return NewRuntime(ctx, configPath)
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	go func() {
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		r.cleanupFn(context.Background())
		return err
	}
}
