package store

import "github.com/MKhiriev/go-agent-platform/internal/logger"

// Storages bundles every PostgreSQL repository behind one handle. Services
// receive the whole bundle and pick the repositories they need.
type Storages struct {
	UserRepository        UserRepository
	SessionRepository     SessionRepository
	AgentRepository       AgentRepository
	TaskRepository        TaskRepository
	ListingRepository     ListingRepository
	WalletRepository      WalletRepository
	TransactionRepository TransactionRepository
	UsageRepository       UsageRepository
}

// NewStorages constructs all repositories over the shared database
// connection.
func NewStorages(db *DB, log *logger.Logger) *Storages {
	return &Storages{
		UserRepository:        NewUserRepository(db, log),
		SessionRepository:     NewSessionRepository(db, log),
		AgentRepository:       NewAgentRepository(db, log),
		TaskRepository:        NewTaskRepository(db, log),
		ListingRepository:     NewListingRepository(db, log),
		WalletRepository:      NewWalletRepository(db, log),
		TransactionRepository: NewTransactionRepository(db, log),
		UsageRepository:       NewUsageRepository(db, log),
	}
}
