package postgres

import (
	"gorm.io/gorm"

	"github.com/forlarge/marketplace/internal/ports"
)

type Repositories struct {
	Products     ports.ProductRepository
	Transactions ports.TransactionRepository
	Access       ports.DownloadAccessRepository
	Outbox       ports.OutboxRepository
	EventDedup   ports.EventDedupRepository
	Idempotency  ports.IdempotencyRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Products:     &productRepository{db: db},
		Transactions: &transactionRepository{db: db},
		Access:       &downloadAccessRepository{db: db},
		Outbox:       &outboxRepository{db: db},
		EventDedup:   &eventDedupRepository{db: db},
		Idempotency:  &idempotencyRepository{db: db},
	}
}
