package unit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forlarge/marketplace/internal/application"
	"github.com/forlarge/marketplace/internal/contracts"
	"github.com/forlarge/marketplace/internal/domain"
	"github.com/forlarge/marketplace/internal/ports"
)

const (
	buyerWallet  = "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb3"
	sellerWallet = "0x8Ba1f109551bD432803012645Ac136ddd64DBA72"
)

func testTxHash(tag string) string {
	return "0x" + strings.Repeat("0", 64-len(tag)) + tag
}

type fakeProducts struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.Product
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{items: map[uuid.UUID]domain.Product{}}
}

func (f *fakeProducts) Create(_ context.Context, params ports.CreateProductParams) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product := domain.Product{
		ProductID:          uuid.New(),
		CreatorID:          params.CreatorID,
		Title:              params.Title,
		Description:        params.Description,
		Price:              params.Price,
		Currency:           params.Currency,
		FileType:           params.FileType,
		FileRef:            params.FileRef,
		ExternalURL:        params.ExternalURL,
		FileSize:           params.FileSize,
		SellerWalletBase:   params.SellerWalletBase,
		SellerWalletSolana: params.SellerWalletSolana,
		CreatedAt:          params.CreatedAt,
		UpdatedAt:          params.CreatedAt,
	}
	f.items[product.ProductID] = product
	return product, nil
}

func (f *fakeProducts) GetByID(_ context.Context, productID uuid.UUID) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.items[productID]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return product, nil
}

func (f *fakeProducts) Update(_ context.Context, params ports.UpdateProductParams) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.items[params.ProductID]
	if !ok || product.CreatorID != params.CreatorID {
		return domain.Product{}, domain.ErrNotFound
	}
	if params.Title != nil {
		product.Title = *params.Title
	}
	if params.Description != nil {
		product.Description = *params.Description
	}
	if params.Price != nil {
		product.Price = *params.Price
	}
	if params.SellerWalletBase != nil {
		product.SellerWalletBase = *params.SellerWalletBase
	}
	if params.SellerWalletSolana != nil {
		product.SellerWalletSolana = *params.SellerWalletSolana
	}
	product.UpdatedAt = params.UpdatedAt
	f.items[params.ProductID] = product
	return product, nil
}

func (f *fakeProducts) SetPublished(_ context.Context, productID, creatorID uuid.UUID, published bool, now time.Time) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.items[productID]
	if !ok || product.CreatorID != creatorID {
		return domain.Product{}, domain.ErrNotFound
	}
	product.Published = published
	product.UpdatedAt = now
	f.items[productID] = product
	return product, nil
}

func (f *fakeProducts) ListByCreator(_ context.Context, creatorID uuid.UUID, _, _ int) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Product
	for _, p := range f.items {
		if p.CreatorID == creatorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) ListPublished(_ context.Context, _, _ int) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Product
	for _, p := range f.items {
		if p.Published {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeTransactions struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]domain.Transaction
	byHash map[string]uuid.UUID
}

func newFakeTransactions() *fakeTransactions {
	return &fakeTransactions{byID: map[uuid.UUID]domain.Transaction{}, byHash: map[string]uuid.UUID{}}
}

func (f *fakeTransactions) Create(_ context.Context, params ports.CreateTransactionParams) (domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byHash[params.TxHash]; exists {
		return domain.Transaction{}, fmt.Errorf("%w: tx_hash already recorded", domain.ErrConflict)
	}
	tx := domain.Transaction{
		TransactionID:       uuid.New(),
		ProductID:           params.ProductID,
		BuyerWalletAddress:  params.BuyerWalletAddress,
		SellerWalletAddress: params.SellerWalletAddress,
		BuyerEmailEncrypted: params.BuyerEmailEncrypted,
		Amount:              params.Amount,
		Currency:            params.Currency,
		Chain:               params.Chain,
		TxHash:              params.TxHash,
		Status:              domain.TransactionPending,
		PlatformFee:         params.PlatformFee,
		CreatorAmount:       params.CreatorAmount,
		CreatedAt:           params.CreatedAt,
	}
	f.byID[tx.TransactionID] = tx
	f.byHash[tx.TxHash] = tx.TransactionID
	return tx, nil
}

func (f *fakeTransactions) GetByID(_ context.Context, transactionID uuid.UUID) (domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.byID[transactionID]
	if !ok {
		return domain.Transaction{}, domain.ErrNotFound
	}
	return tx, nil
}

func (f *fakeTransactions) GetByTxHash(_ context.Context, txHash string) (domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byHash[txHash]
	if !ok {
		return domain.Transaction{}, domain.ErrNotFound
	}
	return f.byID[id], nil
}

func (f *fakeTransactions) ConfirmByTxHash(_ context.Context, txHash string, confirmedAt time.Time) (domain.Transaction, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byHash[txHash]
	if !ok {
		return domain.Transaction{}, false, domain.ErrNotFound
	}
	tx := f.byID[id]
	if tx.Status != domain.TransactionPending {
		return tx, false, nil
	}
	tx.Status = domain.TransactionConfirmed
	at := confirmedAt
	tx.ConfirmedAt = &at
	f.byID[id] = tx
	return tx, true, nil
}

type fakeAccess struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]domain.DownloadAccess
	byTx    map[uuid.UUID]uuid.UUID
	byToken map[string]uuid.UUID
}

func newFakeAccess() *fakeAccess {
	return &fakeAccess{
		rows:    map[uuid.UUID]domain.DownloadAccess{},
		byTx:    map[uuid.UUID]uuid.UUID{},
		byToken: map[string]uuid.UUID{},
	}
}

func (f *fakeAccess) Create(_ context.Context, params ports.CreateDownloadAccessParams) (domain.DownloadAccess, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existingID, ok := f.byTx[params.TransactionID]; ok {
		return f.rows[existingID], false, nil
	}
	access := domain.DownloadAccess{
		AccessID:           uuid.New(),
		TransactionID:      params.TransactionID,
		ProductID:          params.ProductID,
		BuyerWalletAddress: params.BuyerWalletAddress,
		AccessToken:        params.AccessToken,
		CreatedAt:          params.CreatedAt,
		ExpiresAt:          params.ExpiresAt,
		MaxDownloads:       params.MaxDownloads,
	}
	f.rows[access.AccessID] = access
	f.byTx[access.TransactionID] = access.AccessID
	f.byToken[access.AccessToken] = access.AccessID
	return access, true, nil
}

func (f *fakeAccess) GetByToken(_ context.Context, token string) (domain.DownloadAccess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byToken[token]
	if !ok {
		return domain.DownloadAccess{}, domain.ErrNotFound
	}
	return f.rows[id], nil
}

func (f *fakeAccess) GetByTransactionID(_ context.Context, transactionID uuid.UUID) (domain.DownloadAccess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byTx[transactionID]
	if !ok {
		return domain.DownloadAccess{}, domain.ErrNotFound
	}
	return f.rows[id], nil
}

func (f *fakeAccess) ConsumeOnce(_ context.Context, token string, now time.Time) (domain.DownloadAccess, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byToken[token]
	if !ok {
		return domain.DownloadAccess{}, false, domain.ErrNotFound
	}
	access := f.rows[id]
	if !now.Before(access.ExpiresAt) || access.DownloadCount >= access.MaxDownloads {
		return access, false, nil
	}
	access.DownloadCount++
	f.rows[id] = access
	return access, true, nil
}

func (f *fakeAccess) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeOutbox struct {
	mu     sync.Mutex
	events []ports.OutboxEvent
}

func (f *fakeOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) FetchUnpublished(_ context.Context, _ int) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, _ uuid.UUID, _ time.Time) error { return nil }

func (f *fakeOutbox) MarkFailed(_ context.Context, _ uuid.UUID, _ string, _ time.Time) error {
	return nil
}

func (f *fakeOutbox) countType(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

type fakeDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{seen: map[string]bool{}}
}

func (f *fakeDedup) IsDuplicate(_ context.Context, eventID string, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[eventID], nil
}

func (f *fakeDedup) MarkProcessed(_ context.Context, eventID, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[eventID] = true
	return nil
}

type fakeIdempotency struct {
	mu      sync.Mutex
	records map[string]*ports.IdempotencyRecord
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{records: map[string]*ports.IdempotencyRecord{}}
}

func (f *fakeIdempotency) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeIdempotency) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.records[key]; exists {
		return errors.New("key already reserved")
	}
	f.records[key] = &ports.IdempotencyRecord{Key: key, RequestHash: requestHash, Status: "reserved", ExpiresAt: expiresAt}
	return nil
}

func (f *fakeIdempotency) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key]
	if !ok {
		return errors.New("key not reserved")
	}
	rec.Status = "completed"
	rec.ResponseCode = responseCode
	rec.ResponseBody = responseBody
	return nil
}

type fakeEmail struct {
	mu          sync.Mutex
	receipts    int
	sales       int
	failReceipt bool
}

func (f *fakeEmail) SendPaymentReceipt(_ context.Context, _ ports.PaymentReceipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReceipt {
		return errors.New("smtp unavailable")
	}
	f.receipts++
	return nil
}

func (f *fakeEmail) SendSaleNotification(_ context.Context, _ ports.SaleNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sales++
	return nil
}

type fakeBuilder struct {
	chain domain.Chain
}

func (f fakeBuilder) Chain() domain.Chain { return f.chain }

func (f fakeBuilder) BuildPayment(_ context.Context, params ports.BuildPaymentParams) (ports.UnsignedPayment, error) {
	fee, creator := domain.SplitAmount(params.Amount, domain.DefaultPlatformFeePercent)
	return ports.UnsignedPayment{
		Chain:         f.chain,
		TokenAddress:  "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		Amount:        params.Amount,
		PlatformFee:   fee,
		CreatorAmount: creator,
		CallData:      "0xa9059cbb",
		ChainID:       8453,
		GasLimit:      65000,
	}, nil
}

type testEnv struct {
	svc     *application.Service
	txs     *fakeTransactions
	access  *fakeAccess
	outbox  *fakeOutbox
	email   *fakeEmail
	product domain.Product
}

func newTestEnv(t *testing.T, cfg application.Config) *testEnv {
	t.Helper()
	products := newFakeProducts()
	product, err := products.Create(context.Background(), ports.CreateProductParams{
		CreatorID:          uuid.New(),
		Title:              "Synth Preset Pack",
		Price:              decimal.RequireFromString("10.00"),
		Currency:           "USDC",
		FileType:           domain.FileTypeHosted,
		FileRef:            "blobs/synth-preset-pack.zip",
		SellerWalletBase:   sellerWallet,
		SellerWalletSolana: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		CreatedAt:          time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	product, err = products.SetPublished(context.Background(), product.ProductID, product.CreatorID, true, time.Now().UTC())
	if err != nil {
		t.Fatalf("publish product: %v", err)
	}

	txs := newFakeTransactions()
	access := newFakeAccess()
	outbox := &fakeOutbox{}
	email := &fakeEmail{}
	svc := application.NewService(application.Dependencies{
		Config:       cfg,
		Products:     products,
		Transactions: txs,
		Access:       access,
		Outbox:       outbox,
		EventDedup:   newFakeDedup(),
		Idempotency:  newFakeIdempotency(),
		Builders:     []ports.PaymentBuilder{fakeBuilder{chain: domain.ChainBase}},
		Email:        email,
	})
	return &testEnv{svc: svc, txs: txs, access: access, outbox: outbox, email: email, product: product}
}

func recordPayment(t *testing.T, env *testEnv, txHash string) contracts.TransactionResponse {
	t.Helper()
	resp, err := env.svc.RecordPayment(context.Background(), contracts.RecordPaymentRequest{
		ProductID:   env.product.ProductID.String(),
		Amount:      "10.00",
		Chain:       "base",
		BuyerWallet: buyerWallet,
		TxHash:      txHash,
	}, "")
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	return resp
}

func TestRecordPaymentSplitsFee(t *testing.T) {
	env := newTestEnv(t, application.Config{})
	resp := recordPayment(t, env, testTxHash("a1"))

	if resp.Status != "pending" {
		t.Fatalf("expected pending status, got %q", resp.Status)
	}
	fee := decimal.RequireFromString(resp.PlatformFee)
	creator := decimal.RequireFromString(resp.CreatorAmount)
	if !fee.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected platform fee 0.5, got %s", fee)
	}
	if !creator.Equal(decimal.RequireFromString("9.5")) {
		t.Fatalf("expected creator amount 9.5, got %s", creator)
	}
	if !fee.Add(creator).Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("fee + creator must equal amount, got %s", fee.Add(creator))
	}
}

func TestRecordPaymentDuplicateTxHash(t *testing.T) {
	env := newTestEnv(t, application.Config{})
	hash := testTxHash("b2")
	recordPayment(t, env, hash)

	_, err := env.svc.RecordPayment(context.Background(), contracts.RecordPaymentRequest{
		ProductID:   env.product.ProductID.String(),
		Amount:      "10.00",
		Chain:       "base",
		BuyerWallet: buyerWallet,
		TxHash:      hash,
	}, "")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on duplicate tx_hash, got %v", err)
	}
}

func TestRecordPaymentIdempotentReplay(t *testing.T) {
	env := newTestEnv(t, application.Config{})
	req := contracts.RecordPaymentRequest{
		ProductID:   env.product.ProductID.String(),
		Amount:      "10.00",
		Chain:       "base",
		BuyerWallet: buyerWallet,
		TxHash:      testTxHash("c3"),
	}
	first, err := env.svc.RecordPayment(context.Background(), req, "idem-record-1")
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	second, err := env.svc.RecordPayment(context.Background(), req, "idem-record-1")
	if err != nil {
		t.Fatalf("record payment replay: %v", err)
	}
	if first.TransactionID != second.TransactionID {
		t.Fatalf("replay returned a different transaction: %s vs %s", first.TransactionID, second.TransactionID)
	}
}

func TestPaymentSuccessIssuesToken(t *testing.T) {
	env := newTestEnv(t, application.Config{})
	hash := testTxHash("d4")
	recordPayment(t, env, hash)

	resp, err := env.svc.ConfirmPaymentSuccess(context.Background(), contracts.PaymentSuccessRequest{TxHash: hash})
	if err != nil {
		t.Fatalf("confirm payment success: %v", err)
	}
	if len(resp.Token) != 32 {
		t.Fatalf("expected 32-char token, got %d chars", len(resp.Token))
	}
	if resp.MaxDownloads != 5 {
		t.Fatalf("expected 5 max downloads, got %d", resp.MaxDownloads)
	}
	expiresAt, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	if err != nil {
		t.Fatalf("parse expires_at: %v", err)
	}
	ttl := time.Until(expiresAt)
	if ttl < 23*time.Hour || ttl > 25*time.Hour {
		t.Fatalf("expected ~24h expiry, got %s", ttl)
	}

	tx, err := env.txs.GetByTxHash(context.Background(), hash)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if !tx.Confirmed() {
		t.Fatalf("expected confirmed transaction after settlement")
	}
	if got := env.outbox.countType(domain.EventPaymentConfirmed); got != 1 {
		t.Fatalf("expected 1 payment confirmed event, got %d", got)
	}
	if got := env.outbox.countType(domain.EventAccessIssued); got != 1 {
		t.Fatalf("expected 1 access issued event, got %d", got)
	}
}

func TestPaymentSuccessRepeatReturnsSameToken(t *testing.T) {
	env := newTestEnv(t, application.Config{})
	hash := testTxHash("e5")
	recordPayment(t, env, hash)

	first, err := env.svc.ConfirmPaymentSuccess(context.Background(), contracts.PaymentSuccessRequest{TxHash: hash})
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	second, err := env.svc.ConfirmPaymentSuccess(context.Background(), contracts.PaymentSuccessRequest{TxHash: hash})
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if first.Token != second.Token {
		t.Fatalf("repeat settlement minted a new token")
	}
	if env.access.count() != 1 {
		t.Fatalf("expected exactly one access row, got %d", env.access.count())
	}
	if got := env.outbox.countType(domain.EventPaymentConfirmed); got != 1 {
		t.Fatalf("expected 1 payment confirmed event after repeat, got %d", got)
	}
}

func TestSettlementEventDeduped(t *testing.T) {
	env := newTestEnv(t, application.Config{})
	hash := testTxHash("f6")
	recordPayment(t, env, hash)

	data, _ := json.Marshal(contracts.SettlementConfirmedPayload{TxHash: hash, Chain: "base"})
	envelope := contracts.EventEnvelope{
		EventID:          uuid.NewString(),
		EventType:        domain.EventSettlementConfirmed,
		EventClass:       "domain",
		OccurredAt:       time.Now().UTC(),
		PartitionKeyPath: "data.tx_hash",
		PartitionKey:     hash,
		SourceService:    "settlement-gateway",
		SchemaVersion:    "1.0",
		Data:             data,
	}
	raw, _ := json.Marshal(envelope)

	if err := env.svc.HandleSettlementEvent(context.Background(), raw); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := env.svc.HandleSettlementEvent(context.Background(), raw); err != nil {
		t.Fatalf("duplicate delivery: %v", err)
	}

	// A redelivery under a fresh event id still settles idempotently.
	envelope.EventID = uuid.NewString()
	raw, _ = json.Marshal(envelope)
	if err := env.svc.HandleSettlementEvent(context.Background(), raw); err != nil {
		t.Fatalf("redelivery with new event id: %v", err)
	}

	if env.access.count() != 1 {
		t.Fatalf("expected one access row, got %d", env.access.count())
	}
	if got := env.outbox.countType(domain.EventPaymentConfirmed); got != 1 {
		t.Fatalf("expected one confirmed event, got %d", got)
	}
}

func TestSettlementEventRejectsWrongType(t *testing.T) {
	env := newTestEnv(t, application.Config{})
	envelope := contracts.EventEnvelope{
		EventID:          uuid.NewString(),
		EventType:        "settlement.payment.refunded",
		OccurredAt:       time.Now().UTC(),
		PartitionKeyPath: "data.tx_hash",
		PartitionKey:     testTxHash("00"),
		Data:             json.RawMessage(`{}`),
	}
	raw, _ := json.Marshal(envelope)
	if err := env.svc.HandleSettlementEvent(context.Background(), raw); !errors.Is(err, domain.ErrUnsupportedEvent) {
		t.Fatalf("expected unsupported event error, got %v", err)
	}
}

func TestWebhookUnknownTypeRejected(t *testing.T) {
	env := newTestEnv(t, application.Config{})
	err := env.svc.HandleSettlementWebhook(context.Background(), contracts.WebhookEvent{
		Type: "refund.created",
		Data: json.RawMessage(`{"tx_hash":"0xabc"}`),
	})
	if !errors.Is(err, domain.ErrUnsupportedEvent) {
		t.Fatalf("expected unsupported event error, got %v", err)
	}
}

func TestWebhookUnknownTxHash(t *testing.T) {
	env := newTestEnv(t, application.Config{})
	data, _ := json.Marshal(contracts.SettlementConfirmedPayload{TxHash: testTxHash("99")})
	err := env.svc.HandleSettlementWebhook(context.Background(), contracts.WebhookEvent{
		Type: "payment.confirmed",
		Data: data,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown tx_hash, got %v", err)
	}
	if env.access.count() != 0 {
		t.Fatalf("no access must be issued for an unknown tx_hash")
	}
}

func TestConsumeDownloadQuota(t *testing.T) {
	env := newTestEnv(t, application.Config{})
	hash := testTxHash("a7")
	recordPayment(t, env, hash)
	issued, err := env.svc.ConfirmPaymentSuccess(context.Background(), contracts.PaymentSuccessRequest{TxHash: hash})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	for i := 1; i <= 5; i++ {
		result, consumeErr := env.svc.ConsumeDownload(context.Background(), issued.Token, "")
		if consumeErr != nil {
			t.Fatalf("consume %d: %v", i, consumeErr)
		}
		if result.RemainingDownloads != 5-i {
			t.Fatalf("consume %d: expected %d remaining, got %d", i, 5-i, result.RemainingDownloads)
		}
		if result.FileLocator != env.product.FileRef {
			t.Fatalf("unexpected file locator %q", result.FileLocator)
		}
	}
	if _, err := env.svc.ConsumeDownload(context.Background(), issued.Token, ""); !errors.Is(err, domain.ErrDownloadLimitReached) {
		t.Fatalf("expected download limit error on sixth consume, got %v", err)
	}
}

func TestConcurrentConsumeLastSlot(t *testing.T) {
	env := newTestEnv(t, application.Config{DefaultMaxDownloads: 1})
	hash := testTxHash("b8")
	recordPayment(t, env, hash)
	issued, err := env.svc.ConfirmPaymentSuccess(context.Background(), contracts.PaymentSuccessRequest{TxHash: hash})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	const racers = 8
	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, consumeErr := env.svc.ConsumeDownload(context.Background(), issued.Token, "")
			results <- consumeErr
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for consumeErr := range results {
		if consumeErr == nil {
			successes++
			continue
		}
		if !errors.Is(consumeErr, domain.ErrDownloadLimitReached) {
			t.Fatalf("unexpected consume error: %v", consumeErr)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful consume, got %d", successes)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	env := newTestEnv(t, application.Config{AccessTokenTTL: time.Nanosecond})
	hash := testTxHash("c9")
	recordPayment(t, env, hash)
	issued, err := env.svc.ConfirmPaymentSuccess(context.Background(), contracts.PaymentSuccessRequest{TxHash: hash})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, err := env.svc.ValidateAccess(context.Background(), issued.Token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected expired token on validate, got %v", err)
	}
	if _, err := env.svc.ConsumeDownload(context.Background(), issued.Token, ""); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected expired token on consume, got %v", err)
	}
}

func TestUnknownTokenRejected(t *testing.T) {
	env := newTestEnv(t, application.Config{})
	if _, err := env.svc.ValidateAccess(context.Background(), strings.Repeat("x", 32)); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestSettlementEmailsSentOncePerTransition(t *testing.T) {
	env := newTestEnv(t, application.Config{})
	hash := testTxHash("d1")
	recordPayment(t, env, hash)

	req := contracts.PaymentSuccessRequest{
		TxHash:       hash,
		ProductTitle: "Synth Preset Pack",
		BuyerEmail:   "buyer@example.com",
		CreatorEmail: "creator@example.com",
	}
	if _, err := env.svc.ConfirmPaymentSuccess(context.Background(), req); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := env.svc.ConfirmPaymentSuccess(context.Background(), req); err != nil {
		t.Fatalf("repeat confirm: %v", err)
	}
	if env.email.receipts != 1 || env.email.sales != 1 {
		t.Fatalf("expected one receipt and one sale notification, got %d and %d", env.email.receipts, env.email.sales)
	}
}

func TestSettlementSucceedsWhenEmailFails(t *testing.T) {
	env := newTestEnv(t, application.Config{})
	env.email.failReceipt = true
	hash := testTxHash("e2")
	recordPayment(t, env, hash)

	resp, err := env.svc.ConfirmPaymentSuccess(context.Background(), contracts.PaymentSuccessRequest{
		TxHash:     hash,
		BuyerEmail: "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("settlement must not fail on email delivery: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected token despite email failure")
	}
}

func TestBuildPaymentGuards(t *testing.T) {
	env := newTestEnv(t, application.Config{})

	if _, err := env.svc.BuildPayment(context.Background(), contracts.CreatePaymentRequest{
		ProductID:   env.product.ProductID.String(),
		Chain:       "solana",
		BuyerWallet: "4Nd1mYvNQkr1nt1CBgkqAjFEPBKLdNNvZwyLpgWvdmBc",
	}); !errors.Is(err, domain.ErrUnsupportedChain) {
		t.Fatalf("expected unsupported chain without a solana builder, got %v", err)
	}

	if _, err := env.svc.BuildPayment(context.Background(), contracts.CreatePaymentRequest{
		ProductID:   env.product.ProductID.String(),
		Chain:       "base",
		BuyerWallet: "not-a-wallet",
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid wallet error, got %v", err)
	}

	resp, err := env.svc.BuildPayment(context.Background(), contracts.CreatePaymentRequest{
		ProductID:   env.product.ProductID.String(),
		Chain:       "base",
		BuyerWallet: buyerWallet,
	})
	if err != nil {
		t.Fatalf("build payment: %v", err)
	}
	if resp.SellerWallet != sellerWallet {
		t.Fatalf("expected seller wallet %s, got %s", sellerWallet, resp.SellerWallet)
	}
	if resp.CallData == "" || resp.ChainID != 8453 {
		t.Fatalf("expected evm payment fields, got %+v", resp)
	}
}

func TestBuildPaymentUnpublishedProduct(t *testing.T) {
	env := newTestEnv(t, application.Config{})
	products := newFakeProducts()
	draft, _ := products.Create(context.Background(), ports.CreateProductParams{
		CreatorID:        uuid.New(),
		Title:            "Draft",
		Price:            decimal.RequireFromString("1.00"),
		Currency:         "USDC",
		FileType:         domain.FileTypeHosted,
		FileRef:          "blobs/draft.zip",
		SellerWalletBase: sellerWallet,
		CreatedAt:        time.Now().UTC(),
	})
	svc := application.NewService(application.Dependencies{
		Products:     products,
		Transactions: env.txs,
		Access:       env.access,
		Outbox:       env.outbox,
		EventDedup:   newFakeDedup(),
		Idempotency:  newFakeIdempotency(),
		Builders:     []ports.PaymentBuilder{fakeBuilder{chain: domain.ChainBase}},
	})
	if _, err := svc.BuildPayment(context.Background(), contracts.CreatePaymentRequest{
		ProductID:   draft.ProductID.String(),
		Chain:       "base",
		BuyerWallet: buyerWallet,
	}); !errors.Is(err, domain.ErrProductUnpublished) {
		t.Fatalf("expected unpublished product error, got %v", err)
	}
}
