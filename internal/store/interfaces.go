package store

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MKhiriev/go-agent-platform/models"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// CreateUser inserts a new account and returns it with server-assigned
	// fields populated. A duplicate email or username yields
	// [ErrUserAlreadyExists].
	CreateUser(ctx context.Context, user models.User) (models.User, error)

	// FindUserByEmail returns the account registered under email, or
	// [ErrUserNotFound].
	FindUserByEmail(ctx context.Context, email string) (models.User, error)

	// GetUser returns the account with the given ID, or [ErrUserNotFound].
	GetUser(ctx context.Context, userID int64) (models.User, error)
}

// SessionRepository persists refresh-token sessions.
type SessionRepository interface {
	// CreateSession inserts a new session row.
	CreateSession(ctx context.Context, session models.Session) (models.Session, error)

	// FindSessionByTokenHash looks a session up by the keyed hash of its
	// refresh token, or returns [ErrSessionNotFound].
	FindSessionByTokenHash(ctx context.Context, tokenHash string) (models.Session, error)

	// RevokeSession marks the session revoked. Revoking an unknown session
	// returns [ErrSessionNotFound].
	RevokeSession(ctx context.Context, sessionID string) error

	// DeleteExpiredSessions removes sessions that expired before the given
	// time and returns the number of rows deleted.
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// AgentRepository persists agents and their rolled-up metrics.
type AgentRepository interface {
	// CreateAgent inserts a new agent. A duplicate (owner, name) pair yields
	// [ErrAgentNameTaken].
	CreateAgent(ctx context.Context, agent models.Agent) (models.Agent, error)

	// GetAgent returns the agent with the given ID, or [ErrAgentNotFound].
	GetAgent(ctx context.Context, agentID string) (models.Agent, error)

	// ListAgentsByOwner returns all agents owned by ownerID, newest first.
	ListAgentsByOwner(ctx context.Context, ownerID int64) ([]models.Agent, error)

	// CountAgentsByOwner returns the number of non-retired agents owned by
	// ownerID. Used to enforce the per-user agent ceiling.
	CountAgentsByOwner(ctx context.Context, ownerID int64) (int64, error)

	// UpdateAgent applies a partial update and returns the updated agent.
	// Unknown agent → [ErrAgentNotFound].
	UpdateAgent(ctx context.Context, agentID string, update models.UpdateAgentRequest) (models.Agent, error)

	// UpdateAgentStatus moves the agent from one status to another as a
	// compare-and-set. Unknown agent → [ErrAgentNotFound]; status changed
	// concurrently → [ErrStatusConflict].
	UpdateAgentStatus(ctx context.Context, agentID string, from, to models.AgentStatus) error

	// RecordAgentResult folds one task outcome into the agent's metrics
	// (count bumps plus the incremental response-time mean).
	RecordAgentResult(ctx context.Context, agentID string, succeeded bool, responseTime float64) error
}

// TaskRepository persists agent tasks.
type TaskRepository interface {
	// CreateTask inserts a newly queued task.
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)

	// GetTask returns the task with the given ID, or [ErrTaskNotFound].
	GetTask(ctx context.Context, taskID string) (models.Task, error)

	// ListTasksByAgent returns the most recent tasks of one agent.
	ListTasksByAgent(ctx context.Context, agentID string, limit uint64) ([]models.Task, error)

	// ListTasksByUser returns the most recent tasks submitted by one user.
	ListTasksByUser(ctx context.Context, userID int64, limit uint64) ([]models.Task, error)

	// MarkTaskRunning transitions a queued task to running and stamps
	// started_at. Unknown task → [ErrTaskNotFound].
	MarkTaskRunning(ctx context.Context, taskID string, startedAt time.Time) error

	// CompleteTask stores the result, cost and completion time of a
	// successfully executed task.
	CompleteTask(ctx context.Context, task models.Task) error

	// FailTask marks a task failed, timed out or cancelled with the reason.
	FailTask(ctx context.Context, taskID string, status models.TaskStatus, reason string, completedAt time.Time) error

	// ListUnfinishedTasks returns tasks still queued or running, oldest
	// first. Used to requeue work after a restart.
	ListUnfinishedTasks(ctx context.Context) ([]models.Task, error)
}

// PurchaseParams carries everything a marketplace purchase needs. The
// transaction IDs are assigned by the caller so the repository stays free of
// ID generation.
type PurchaseParams struct {
	ListingID       string
	BuyerID         int64
	FeeRate         decimal.Decimal
	TreasuryAddress string
	PurchaseTxID    string
	FeeTxID         string
	Now             time.Time
}

// PurchaseResult reports the outcome of a completed purchase.
type PurchaseResult struct {
	Listing models.Listing
	Agent   models.Agent
	Price   decimal.Decimal
	Fee     decimal.Decimal
	Total   decimal.Decimal
}

// ListingRepository persists marketplace listings and executes purchases.
type ListingRepository interface {
	// CreateListing inserts a new listing. A second active listing for the
	// same agent yields [ErrListingAlreadyActive].
	CreateListing(ctx context.Context, listing models.Listing) (models.Listing, error)

	// GetListing returns the listing with the given ID, or [ErrListingNotFound].
	GetListing(ctx context.Context, listingID string) (models.Listing, error)

	// SearchListings returns listings matching the filter.
	SearchListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error)

	// UpdateListing applies a partial update to an active listing owned by
	// sellerID and returns the updated listing. Unknown or foreign listing →
	// [ErrListingNotFound]; non-active → [ErrListingNotActive].
	UpdateListing(ctx context.Context, listingID string, sellerID int64, update models.UpdateListingRequest) (models.Listing, error)

	// CancelListing cancels an active listing owned by sellerID.
	CancelListing(ctx context.Context, listingID string, sellerID int64) error

	// ExpireListings marks active listings whose expiry has passed as
	// expired and returns the number of rows changed.
	ExpireListings(ctx context.Context, now time.Time) (int64, error)

	// IncrementViews bumps the view counter. Best effort.
	IncrementViews(ctx context.Context, listingID string) error

	// ToggleFavorite adds or removes the user's bookmark and returns whether
	// the listing is now favorited plus the new favorite count.
	ToggleFavorite(ctx context.Context, listingID string, userID int64) (bool, int64, error)

	// ExecutePurchase atomically settles a purchase: locks the listing and
	// the three wallets involved, moves the price to the seller and the fee
	// to the treasury, transfers agent ownership, marks the listing sold and
	// records both ledger entries. Well-known failures map to
	// [ErrListingNotFound], [ErrListingNotActive], [ErrOwnListingPurchase]
	// and [ErrInsufficientBalance].
	ExecutePurchase(ctx context.Context, params PurchaseParams) (PurchaseResult, error)
}

// WalletRepository persists wallets and moves funds between them.
type WalletRepository interface {
	// CreateWallet inserts a new wallet row.
	CreateWallet(ctx context.Context, wallet models.Wallet) (models.Wallet, error)

	// GetWalletByUser returns the wallet owned by userID, or [ErrWalletNotFound].
	GetWalletByUser(ctx context.Context, userID int64) (models.Wallet, error)

	// GetWalletByAddress returns the wallet with the given address, or
	// [ErrWalletNotFound].
	GetWalletByAddress(ctx context.Context, address string) (models.Wallet, error)

	// Transfer moves amount from one wallet to another inside a single
	// transaction with row locks. Unknown address → [ErrWalletNotFound];
	// uncovered amount → [ErrInsufficientBalance].
	Transfer(ctx context.Context, fromAddress, toAddress string, amount decimal.Decimal) error

	// Stake moves amount from the spendable balance to the staked bucket
	// and returns the updated wallet.
	Stake(ctx context.Context, userID int64, amount decimal.Decimal) (models.Wallet, error)

	// Unstake moves amount from the staked bucket back to the spendable
	// balance and returns the updated wallet.
	Unstake(ctx context.Context, userID int64, amount decimal.Decimal) (models.Wallet, error)

	// EnsureTreasury creates the treasury wallet with the initial token
	// supply if it does not exist yet, and returns it. Safe to call on
	// every startup.
	EnsureTreasury(ctx context.Context, address string, supply decimal.Decimal) (models.Wallet, error)
}

// TransactionRepository persists immutable ledger entries.
type TransactionRepository interface {
	// RecordTransaction inserts one ledger entry.
	RecordTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)

	// GetTransaction returns the entry with the given ID, or
	// [ErrTransactionNotFound].
	GetTransaction(ctx context.Context, txID string) (models.Transaction, error)

	// ListTransactionsByAddress returns the most recent entries where the
	// address appears on either side.
	ListTransactionsByAddress(ctx context.Context, address string, limit uint64) ([]models.Transaction, error)
}

// UsageRepository persists billed provider calls.
type UsageRepository interface {
	// RecordUsage inserts one usage row.
	RecordUsage(ctx context.Context, usage models.ServiceUsage) error

	// SummarizeUsageDay aggregates one user's request count and total cost
	// over the UTC day containing the given time.
	SummarizeUsageDay(ctx context.Context, userID int64, day time.Time) (models.UsageSummary, error)
}

// ErrorClassificator decides whether a failed database operation is worth
// retrying.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
