package service

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MKhiriev/go-agent-platform/internal/store"
	"github.com/MKhiriev/go-agent-platform/models"
)

// AuthService manages user accounts, credentials and token lifecycles.
type AuthService interface {
	// Register creates a new account with a funded wallet. Duplicate email
	// or username → [store.ErrUserAlreadyExists].
	Register(ctx context.Context, req models.RegisterRequest) (models.User, error)

	// Login verifies the credentials and issues a token pair. Bad
	// credentials → [ErrWrongPassword]; deactivated account →
	// [ErrUserDeactivated].
	Login(ctx context.Context, req models.LoginRequest) (models.User, models.TokenPair, error)

	// Refresh rotates a refresh token: the presented session is revoked and
	// a fresh pair is issued. Unknown, revoked or expired token →
	// [ErrSessionExpired].
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)

	// Logout revokes the session behind the refresh token.
	Logout(ctx context.Context, refreshToken string) error

	// ParseToken validates an access token and returns its decoded form.
	// Any validation failure → [ErrTokenIsExpiredOrInvalid].
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)

	// GetUser returns the account with the given ID.
	GetUser(ctx context.Context, userID int64) (models.User, error)
}

// AgentService manages the agent lifecycle and ownership rules.
type AgentService interface {
	// CreateAgent registers a new agent for ownerID. Exceeding the per-user
	// ceiling → [ErrAgentLimitReached].
	CreateAgent(ctx context.Context, ownerID int64, req models.CreateAgentRequest) (models.Agent, error)

	// GetAgent returns the agent with the given ID.
	GetAgent(ctx context.Context, agentID string) (models.Agent, error)

	// ListAgents returns all agents owned by ownerID, newest first.
	ListAgents(ctx context.Context, ownerID int64) ([]models.Agent, error)

	// UpdateAgent applies a partial update to an agent owned by ownerID.
	// Foreign agent → [ErrNotAgentOwner]; illegal status change →
	// [ErrInvalidStatusTransition].
	UpdateAgent(ctx context.Context, ownerID int64, agentID string, req models.UpdateAgentRequest) (models.Agent, error)

	// TransitionAgent moves an agent owned by ownerID to the target
	// lifecycle state. Illegal transition → [ErrInvalidStatusTransition].
	TransitionAgent(ctx context.Context, ownerID int64, agentID string, target models.AgentStatus) (models.Agent, error)

	// BeginWork reserves an idle agent for task execution (idle → busy).
	// A non-idle agent → [ErrAgentUnavailable].
	BeginWork(ctx context.Context, agentID string) error

	// FinishWork releases a busy agent (busy → idle) and folds the task
	// outcome into its metrics.
	FinishWork(ctx context.Context, agentID string, succeeded bool, responseTime float64) error
}

// TaskService accepts, queues and executes agent tasks.
type TaskService interface {
	// SubmitTask validates, persists and enqueues a task for the agent.
	// Non-working agent → [ErrAgentUnavailable]; a full queue →
	// [ErrQueueFull]; daily ceiling hit → [ErrDailyLimitExceeded].
	SubmitTask(ctx context.Context, userID int64, agentID string, req models.SubmitTaskRequest) (models.Task, error)

	// GetTask returns a task submitted by userID.
	GetTask(ctx context.Context, userID int64, taskID string) (models.Task, error)

	// ListAgentTasks returns the most recent tasks of an agent owned by
	// userID.
	ListAgentTasks(ctx context.Context, userID int64, agentID string, limit uint64) ([]models.Task, error)

	// ListUserTasks returns the most recent tasks submitted by userID.
	ListUserTasks(ctx context.Context, userID int64, limit uint64) ([]models.Task, error)

	// NextTask pops the highest-priority queued task, if any.
	NextTask() (models.Task, bool)

	// TaskArrived signals when new work lands in the queue.
	TaskArrived() <-chan struct{}

	// QueueDepth reports the number of queued tasks.
	QueueDepth() int

	// RestoreQueue re-enqueues tasks left queued or running by a previous
	// process and returns how many were restored.
	RestoreQueue(ctx context.Context) (int, error)

	// Execute runs one dequeued task end to end: reserves the agent, calls
	// the provider with the execution deadline, prices and charges the
	// usage, persists the outcome and updates the agent metrics.
	Execute(ctx context.Context, task models.Task)
}

// LedgerService is the token economy: wallets, transfers, staking and the
// immutable transaction ledger.
type LedgerService interface {
	// Bootstrap creates the treasury wallet with the initial supply if this
	// is the first start. Idempotent.
	Bootstrap(ctx context.Context) (models.Wallet, error)

	// ProvisionWallet creates a wallet for a fresh account and funds it
	// with the starter grant from the treasury.
	ProvisionWallet(ctx context.Context, userID int64) (models.Wallet, error)

	// Balance returns the wallet of userID.
	Balance(ctx context.Context, userID int64) (models.Wallet, error)

	// Transfer moves tokens from userID's wallet to another address and
	// records the ledger entry. Transfers to the own address →
	// [ErrSelfTransfer]; uncovered amount → [store.ErrInsufficientBalance].
	Transfer(ctx context.Context, userID int64, req models.TransferRequest) (models.Transaction, error)

	// Faucet credits userID's wallet from the treasury. Available only when
	// the platform runs with DEBUG enabled; the HTTP layer hides the route
	// otherwise.
	Faucet(ctx context.Context, userID int64, amount string) (models.Wallet, error)

	// Stake locks tokens of userID. Amounts below the configured minimum →
	// [ErrStakeTooSmall].
	Stake(ctx context.Context, userID int64, amount string) (models.Wallet, error)

	// Unstake releases previously staked tokens of userID.
	Unstake(ctx context.Context, userID int64, amount string) (models.Wallet, error)

	// History returns the most recent ledger entries touching userID's
	// wallet.
	History(ctx context.Context, userID int64, limit uint64) ([]models.Transaction, error)

	// GetTransaction returns a ledger entry visible to userID. Entries
	// between other parties → [ErrNotTransactionParty].
	GetTransaction(ctx context.Context, userID int64, txID string) (models.Transaction, error)

	// ChargeUsage moves the cost of a completed task from the requester to
	// the treasury and records the ledger entry.
	ChargeUsage(ctx context.Context, userID int64, amount decimal.Decimal, taskID string) (models.Transaction, error)

	// Metrics reports the transfer counters accumulated since startup.
	Metrics() LedgerMetrics
}

// LedgerMetrics is a snapshot of the in-process transfer counters.
type LedgerMetrics struct {
	TotalTransfers      int64           `json:"total_transfers"`
	SuccessfulTransfers int64           `json:"successful_transfers"`
	FailedTransfers     int64           `json:"failed_transfers"`
	Volume              decimal.Decimal `json:"volume"`
}

// MarketplaceService manages agent listings and purchases.
type MarketplaceService interface {
	// CreateListing puts an agent owned by sellerID up for sale. Foreign
	// agent → [ErrNotAgentOwner]; price below the floor → [ErrPriceTooLow].
	CreateListing(ctx context.Context, sellerID int64, req models.CreateListingRequest) (models.Listing, error)

	// GetListing returns one listing and counts the view.
	GetListing(ctx context.Context, listingID string) (models.Listing, error)

	// SearchListings returns listings matching the filter, newest first.
	SearchListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error)

	// UpdateListing changes the description, price or tags of an active
	// listing owned by sellerID.
	UpdateListing(ctx context.Context, sellerID int64, listingID string, req models.UpdateListingRequest) (models.Listing, error)

	// CancelListing takes an active listing owned by sellerID off the
	// market.
	CancelListing(ctx context.Context, sellerID int64, listingID string) error

	// Purchase settles a listing for buyerID: price to the seller, fee to
	// the treasury, agent ownership to the buyer. Own listing →
	// [store.ErrOwnListingPurchase]; uncovered total →
	// [store.ErrInsufficientBalance].
	Purchase(ctx context.Context, buyerID int64, listingID string) (store.PurchaseResult, error)

	// ToggleFavorite flips userID's bookmark on a listing and returns the
	// new state plus the favorite count.
	ToggleFavorite(ctx context.Context, userID int64, listingID string) (bool, int64, error)

	// ExpireListings retires active listings whose expiry passed. Run
	// periodically by the sweeper.
	ExpireListings(ctx context.Context, now time.Time) (int64, error)
}

// QuoteSpec describes one billable call for pricing.
type QuoteSpec struct {
	// Type selects the rate table.
	Type models.ServiceType

	// Model selects the rate within the table.
	Model string

	// Units is the billable quantity: tokens for text, images for image
	// generation, characters for speech.
	Units int64

	// Quality picks the quality multiplier. Empty means medium.
	Quality string

	// Size picks the size multiplier for image generation. Empty means
	// 512x512. Ignored for other service types.
	Size string
}

// PricingService prices provider usage and enforces the daily ceilings.
type PricingService interface {
	// Quote prices one call. Unknown model, quality or size → the
	// ErrUnknown* sentinels.
	Quote(ctx context.Context, spec QuoteSpec) (models.CostEstimate, error)

	// UpdateRate changes the base rate of one model. Non-positive rates →
	// [ErrInvalidRate].
	UpdateRate(ctx context.Context, serviceType models.ServiceType, model string, rate decimal.Decimal) error

	// UpdateMultiplier changes a quality or size multiplier. kind is
	// "quality" or "size".
	UpdateMultiplier(ctx context.Context, kind, key string, value decimal.Decimal) error

	// Rates returns a copy of the current rate tables and multipliers.
	Rates(ctx context.Context) PriceStructure

	// CheckDailyLimit counts one request against userID's daily ceiling.
	// Ceiling hit → [ErrDailyLimitExceeded].
	CheckDailyLimit(ctx context.Context, userID int64) error

	// RecordUsage persists one billed provider call.
	RecordUsage(ctx context.Context, usage models.ServiceUsage) error

	// UsageSummary aggregates userID's recorded usage over the UTC day
	// containing day.
	UsageSummary(ctx context.Context, userID int64, day time.Time) (models.UsageSummary, error)
}

// PriceStructure is a point-in-time copy of the pricing tables.
type PriceStructure struct {
	BaseRates          map[models.ServiceType]map[string]decimal.Decimal `json:"base_rates"`
	QualityMultipliers map[string]decimal.Decimal                        `json:"quality_multipliers"`
	SizeMultipliers    map[string]decimal.Decimal                        `json:"size_multipliers"`
}
