package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MKhiriev/go-agent-platform/internal/provider"
	"github.com/MKhiriev/go-agent-platform/internal/store"
	"github.com/MKhiriev/go-agent-platform/models"
)

var errStorage = errors.New("storage error")

// ─────────────────────────────────────────────
// Mock: store.UserRepository
// ─────────────────────────────────────────────

type mockUserRepository struct {
	createUserFn      func(ctx context.Context, user models.User) (models.User, error)
	findUserByEmailFn func(ctx context.Context, email string) (models.User, error)
	getUserFn         func(ctx context.Context, userID int64) (models.User, error)
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, user)
	}
	return user, nil
}

func (m *mockUserRepository) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	if m.findUserByEmailFn != nil {
		return m.findUserByEmailFn(ctx, email)
	}
	return models.User{}, store.ErrUserNotFound
}

func (m *mockUserRepository) GetUser(ctx context.Context, userID int64) (models.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, userID)
	}
	return models.User{}, store.ErrUserNotFound
}

// ─────────────────────────────────────────────
// Mock: store.SessionRepository
// ─────────────────────────────────────────────

type mockSessionRepository struct {
	createSessionFn          func(ctx context.Context, session models.Session) (models.Session, error)
	findSessionByTokenHashFn func(ctx context.Context, tokenHash string) (models.Session, error)
	revokeSessionFn          func(ctx context.Context, sessionID string) error
	deleteExpiredSessionsFn  func(ctx context.Context, before time.Time) (int64, error)
}

func (m *mockSessionRepository) CreateSession(ctx context.Context, session models.Session) (models.Session, error) {
	if m.createSessionFn != nil {
		return m.createSessionFn(ctx, session)
	}
	return session, nil
}

func (m *mockSessionRepository) FindSessionByTokenHash(ctx context.Context, tokenHash string) (models.Session, error) {
	if m.findSessionByTokenHashFn != nil {
		return m.findSessionByTokenHashFn(ctx, tokenHash)
	}
	return models.Session{}, store.ErrSessionNotFound
}

func (m *mockSessionRepository) RevokeSession(ctx context.Context, sessionID string) error {
	if m.revokeSessionFn != nil {
		return m.revokeSessionFn(ctx, sessionID)
	}
	return nil
}

func (m *mockSessionRepository) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	if m.deleteExpiredSessionsFn != nil {
		return m.deleteExpiredSessionsFn(ctx, before)
	}
	return 0, nil
}

// ─────────────────────────────────────────────
// Mock: store.AgentRepository
// ─────────────────────────────────────────────

type mockAgentRepository struct {
	createAgentFn       func(ctx context.Context, agent models.Agent) (models.Agent, error)
	getAgentFn          func(ctx context.Context, agentID string) (models.Agent, error)
	listAgentsByOwnerFn func(ctx context.Context, ownerID int64) ([]models.Agent, error)
	countAgentsFn       func(ctx context.Context, ownerID int64) (int64, error)
	updateAgentFn       func(ctx context.Context, agentID string, update models.UpdateAgentRequest) (models.Agent, error)
	updateAgentStatusFn func(ctx context.Context, agentID string, from, to models.AgentStatus) error
	recordAgentResultFn func(ctx context.Context, agentID string, succeeded bool, responseTime float64) error
}

func (m *mockAgentRepository) CreateAgent(ctx context.Context, agent models.Agent) (models.Agent, error) {
	if m.createAgentFn != nil {
		return m.createAgentFn(ctx, agent)
	}
	return agent, nil
}

func (m *mockAgentRepository) GetAgent(ctx context.Context, agentID string) (models.Agent, error) {
	if m.getAgentFn != nil {
		return m.getAgentFn(ctx, agentID)
	}
	return models.Agent{}, store.ErrAgentNotFound
}

func (m *mockAgentRepository) ListAgentsByOwner(ctx context.Context, ownerID int64) ([]models.Agent, error) {
	if m.listAgentsByOwnerFn != nil {
		return m.listAgentsByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockAgentRepository) CountAgentsByOwner(ctx context.Context, ownerID int64) (int64, error) {
	if m.countAgentsFn != nil {
		return m.countAgentsFn(ctx, ownerID)
	}
	return 0, nil
}

func (m *mockAgentRepository) UpdateAgent(ctx context.Context, agentID string, update models.UpdateAgentRequest) (models.Agent, error) {
	if m.updateAgentFn != nil {
		return m.updateAgentFn(ctx, agentID, update)
	}
	return models.Agent{}, store.ErrAgentNotFound
}

func (m *mockAgentRepository) UpdateAgentStatus(ctx context.Context, agentID string, from, to models.AgentStatus) error {
	if m.updateAgentStatusFn != nil {
		return m.updateAgentStatusFn(ctx, agentID, from, to)
	}
	return nil
}

func (m *mockAgentRepository) RecordAgentResult(ctx context.Context, agentID string, succeeded bool, responseTime float64) error {
	if m.recordAgentResultFn != nil {
		return m.recordAgentResultFn(ctx, agentID, succeeded, responseTime)
	}
	return nil
}

// ─────────────────────────────────────────────
// Mock: store.TaskRepository
// ─────────────────────────────────────────────

type mockTaskRepository struct {
	createTaskFn          func(ctx context.Context, task models.Task) (models.Task, error)
	getTaskFn             func(ctx context.Context, taskID string) (models.Task, error)
	listTasksByAgentFn    func(ctx context.Context, agentID string, limit uint64) ([]models.Task, error)
	listTasksByUserFn     func(ctx context.Context, userID int64, limit uint64) ([]models.Task, error)
	markTaskRunningFn     func(ctx context.Context, taskID string, startedAt time.Time) error
	completeTaskFn        func(ctx context.Context, task models.Task) error
	failTaskFn            func(ctx context.Context, taskID string, status models.TaskStatus, reason string, completedAt time.Time) error
	listUnfinishedTasksFn func(ctx context.Context) ([]models.Task, error)
}

func (m *mockTaskRepository) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	if m.createTaskFn != nil {
		return m.createTaskFn(ctx, task)
	}
	return task, nil
}

func (m *mockTaskRepository) GetTask(ctx context.Context, taskID string) (models.Task, error) {
	if m.getTaskFn != nil {
		return m.getTaskFn(ctx, taskID)
	}
	return models.Task{}, store.ErrTaskNotFound
}

func (m *mockTaskRepository) ListTasksByAgent(ctx context.Context, agentID string, limit uint64) ([]models.Task, error) {
	if m.listTasksByAgentFn != nil {
		return m.listTasksByAgentFn(ctx, agentID, limit)
	}
	return nil, nil
}

func (m *mockTaskRepository) ListTasksByUser(ctx context.Context, userID int64, limit uint64) ([]models.Task, error) {
	if m.listTasksByUserFn != nil {
		return m.listTasksByUserFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockTaskRepository) MarkTaskRunning(ctx context.Context, taskID string, startedAt time.Time) error {
	if m.markTaskRunningFn != nil {
		return m.markTaskRunningFn(ctx, taskID, startedAt)
	}
	return nil
}

func (m *mockTaskRepository) CompleteTask(ctx context.Context, task models.Task) error {
	if m.completeTaskFn != nil {
		return m.completeTaskFn(ctx, task)
	}
	return nil
}

func (m *mockTaskRepository) FailTask(ctx context.Context, taskID string, status models.TaskStatus, reason string, completedAt time.Time) error {
	if m.failTaskFn != nil {
		return m.failTaskFn(ctx, taskID, status, reason, completedAt)
	}
	return nil
}

func (m *mockTaskRepository) ListUnfinishedTasks(ctx context.Context) ([]models.Task, error) {
	if m.listUnfinishedTasksFn != nil {
		return m.listUnfinishedTasksFn(ctx)
	}
	return nil, nil
}

// ─────────────────────────────────────────────
// Mock: store.ListingRepository
// ─────────────────────────────────────────────

type mockListingRepository struct {
	createListingFn   func(ctx context.Context, listing models.Listing) (models.Listing, error)
	getListingFn      func(ctx context.Context, listingID string) (models.Listing, error)
	searchListingsFn  func(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error)
	updateListingFn   func(ctx context.Context, listingID string, sellerID int64, update models.UpdateListingRequest) (models.Listing, error)
	cancelListingFn   func(ctx context.Context, listingID string, sellerID int64) error
	expireListingsFn  func(ctx context.Context, now time.Time) (int64, error)
	incrementViewsFn  func(ctx context.Context, listingID string) error
	toggleFavoriteFn  func(ctx context.Context, listingID string, userID int64) (bool, int64, error)
	executePurchaseFn func(ctx context.Context, params store.PurchaseParams) (store.PurchaseResult, error)
}

func (m *mockListingRepository) CreateListing(ctx context.Context, listing models.Listing) (models.Listing, error) {
	if m.createListingFn != nil {
		return m.createListingFn(ctx, listing)
	}
	return listing, nil
}

func (m *mockListingRepository) GetListing(ctx context.Context, listingID string) (models.Listing, error) {
	if m.getListingFn != nil {
		return m.getListingFn(ctx, listingID)
	}
	return models.Listing{}, store.ErrListingNotFound
}

func (m *mockListingRepository) SearchListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	if m.searchListingsFn != nil {
		return m.searchListingsFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockListingRepository) UpdateListing(ctx context.Context, listingID string, sellerID int64, update models.UpdateListingRequest) (models.Listing, error) {
	if m.updateListingFn != nil {
		return m.updateListingFn(ctx, listingID, sellerID, update)
	}
	return models.Listing{}, store.ErrListingNotFound
}

func (m *mockListingRepository) CancelListing(ctx context.Context, listingID string, sellerID int64) error {
	if m.cancelListingFn != nil {
		return m.cancelListingFn(ctx, listingID, sellerID)
	}
	return nil
}

func (m *mockListingRepository) ExpireListings(ctx context.Context, now time.Time) (int64, error) {
	if m.expireListingsFn != nil {
		return m.expireListingsFn(ctx, now)
	}
	return 0, nil
}

func (m *mockListingRepository) IncrementViews(ctx context.Context, listingID string) error {
	if m.incrementViewsFn != nil {
		return m.incrementViewsFn(ctx, listingID)
	}
	return nil
}

func (m *mockListingRepository) ToggleFavorite(ctx context.Context, listingID string, userID int64) (bool, int64, error) {
	if m.toggleFavoriteFn != nil {
		return m.toggleFavoriteFn(ctx, listingID, userID)
	}
	return false, 0, nil
}

func (m *mockListingRepository) ExecutePurchase(ctx context.Context, params store.PurchaseParams) (store.PurchaseResult, error) {
	if m.executePurchaseFn != nil {
		return m.executePurchaseFn(ctx, params)
	}
	return store.PurchaseResult{}, store.ErrListingNotFound
}

// ─────────────────────────────────────────────
// Mock: store.WalletRepository
// ─────────────────────────────────────────────

type mockWalletRepository struct {
	createWalletFn     func(ctx context.Context, wallet models.Wallet) (models.Wallet, error)
	getWalletByUserFn  func(ctx context.Context, userID int64) (models.Wallet, error)
	getWalletByAddrFn  func(ctx context.Context, address string) (models.Wallet, error)
	transferFn         func(ctx context.Context, fromAddress, toAddress string, amount decimal.Decimal) error
	stakeFn            func(ctx context.Context, userID int64, amount decimal.Decimal) (models.Wallet, error)
	unstakeFn          func(ctx context.Context, userID int64, amount decimal.Decimal) (models.Wallet, error)
	ensureTreasuryFn   func(ctx context.Context, address string, supply decimal.Decimal) (models.Wallet, error)
}

func (m *mockWalletRepository) CreateWallet(ctx context.Context, wallet models.Wallet) (models.Wallet, error) {
	if m.createWalletFn != nil {
		return m.createWalletFn(ctx, wallet)
	}
	return wallet, nil
}

func (m *mockWalletRepository) GetWalletByUser(ctx context.Context, userID int64) (models.Wallet, error) {
	if m.getWalletByUserFn != nil {
		return m.getWalletByUserFn(ctx, userID)
	}
	return models.Wallet{}, store.ErrWalletNotFound
}

func (m *mockWalletRepository) GetWalletByAddress(ctx context.Context, address string) (models.Wallet, error) {
	if m.getWalletByAddrFn != nil {
		return m.getWalletByAddrFn(ctx, address)
	}
	return models.Wallet{}, store.ErrWalletNotFound
}

func (m *mockWalletRepository) Transfer(ctx context.Context, fromAddress, toAddress string, amount decimal.Decimal) error {
	if m.transferFn != nil {
		return m.transferFn(ctx, fromAddress, toAddress, amount)
	}
	return nil
}

func (m *mockWalletRepository) Stake(ctx context.Context, userID int64, amount decimal.Decimal) (models.Wallet, error) {
	if m.stakeFn != nil {
		return m.stakeFn(ctx, userID, amount)
	}
	return models.Wallet{}, store.ErrWalletNotFound
}

func (m *mockWalletRepository) Unstake(ctx context.Context, userID int64, amount decimal.Decimal) (models.Wallet, error) {
	if m.unstakeFn != nil {
		return m.unstakeFn(ctx, userID, amount)
	}
	return models.Wallet{}, store.ErrWalletNotFound
}

func (m *mockWalletRepository) EnsureTreasury(ctx context.Context, address string, supply decimal.Decimal) (models.Wallet, error) {
	if m.ensureTreasuryFn != nil {
		return m.ensureTreasuryFn(ctx, address, supply)
	}
	return models.Wallet{Address: address, Balance: supply}, nil
}

// ─────────────────────────────────────────────
// Mock: store.TransactionRepository
// ─────────────────────────────────────────────

type mockTransactionRepository struct {
	recordTransactionFn func(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	getTransactionFn    func(ctx context.Context, txID string) (models.Transaction, error)
	listTransactionsFn  func(ctx context.Context, address string, limit uint64) ([]models.Transaction, error)
}

func (m *mockTransactionRepository) RecordTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if m.recordTransactionFn != nil {
		return m.recordTransactionFn(ctx, tx)
	}
	return tx, nil
}

func (m *mockTransactionRepository) GetTransaction(ctx context.Context, txID string) (models.Transaction, error) {
	if m.getTransactionFn != nil {
		return m.getTransactionFn(ctx, txID)
	}
	return models.Transaction{}, store.ErrTransactionNotFound
}

func (m *mockTransactionRepository) ListTransactionsByAddress(ctx context.Context, address string, limit uint64) ([]models.Transaction, error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(ctx, address, limit)
	}
	return nil, nil
}

// ─────────────────────────────────────────────
// Mock: store.UsageRepository
// ─────────────────────────────────────────────

type mockUsageRepository struct {
	recordUsageFn       func(ctx context.Context, usage models.ServiceUsage) error
	summarizeUsageDayFn func(ctx context.Context, userID int64, day time.Time) (models.UsageSummary, error)
}

func (m *mockUsageRepository) RecordUsage(ctx context.Context, usage models.ServiceUsage) error {
	if m.recordUsageFn != nil {
		return m.recordUsageFn(ctx, usage)
	}
	return nil
}

func (m *mockUsageRepository) SummarizeUsageDay(ctx context.Context, userID int64, day time.Time) (models.UsageSummary, error) {
	if m.summarizeUsageDayFn != nil {
		return m.summarizeUsageDayFn(ctx, userID, day)
	}
	return models.UsageSummary{}, nil
}

// ─────────────────────────────────────────────
// Mock: LedgerService
// ─────────────────────────────────────────────

type mockLedgerService struct {
	bootstrapFn       func(ctx context.Context) (models.Wallet, error)
	provisionWalletFn func(ctx context.Context, userID int64) (models.Wallet, error)
	balanceFn         func(ctx context.Context, userID int64) (models.Wallet, error)
	transferFn        func(ctx context.Context, userID int64, req models.TransferRequest) (models.Transaction, error)
	faucetFn          func(ctx context.Context, userID int64, amount string) (models.Wallet, error)
	stakeFn           func(ctx context.Context, userID int64, amount string) (models.Wallet, error)
	unstakeFn         func(ctx context.Context, userID int64, amount string) (models.Wallet, error)
	historyFn         func(ctx context.Context, userID int64, limit uint64) ([]models.Transaction, error)
	getTransactionFn  func(ctx context.Context, userID int64, txID string) (models.Transaction, error)
	chargeUsageFn     func(ctx context.Context, userID int64, amount decimal.Decimal, taskID string) (models.Transaction, error)
}

func (m *mockLedgerService) Bootstrap(ctx context.Context) (models.Wallet, error) {
	if m.bootstrapFn != nil {
		return m.bootstrapFn(ctx)
	}
	return models.Wallet{}, nil
}

func (m *mockLedgerService) ProvisionWallet(ctx context.Context, userID int64) (models.Wallet, error) {
	if m.provisionWalletFn != nil {
		return m.provisionWalletFn(ctx, userID)
	}
	return models.Wallet{UserID: userID}, nil
}

func (m *mockLedgerService) Balance(ctx context.Context, userID int64) (models.Wallet, error) {
	if m.balanceFn != nil {
		return m.balanceFn(ctx, userID)
	}
	return models.Wallet{}, store.ErrWalletNotFound
}

func (m *mockLedgerService) Transfer(ctx context.Context, userID int64, req models.TransferRequest) (models.Transaction, error) {
	if m.transferFn != nil {
		return m.transferFn(ctx, userID, req)
	}
	return models.Transaction{}, nil
}

func (m *mockLedgerService) Faucet(ctx context.Context, userID int64, amount string) (models.Wallet, error) {
	if m.faucetFn != nil {
		return m.faucetFn(ctx, userID, amount)
	}
	return models.Wallet{}, nil
}

func (m *mockLedgerService) Stake(ctx context.Context, userID int64, amount string) (models.Wallet, error) {
	if m.stakeFn != nil {
		return m.stakeFn(ctx, userID, amount)
	}
	return models.Wallet{}, nil
}

func (m *mockLedgerService) Unstake(ctx context.Context, userID int64, amount string) (models.Wallet, error) {
	if m.unstakeFn != nil {
		return m.unstakeFn(ctx, userID, amount)
	}
	return models.Wallet{}, nil
}

func (m *mockLedgerService) History(ctx context.Context, userID int64, limit uint64) ([]models.Transaction, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockLedgerService) GetTransaction(ctx context.Context, userID int64, txID string) (models.Transaction, error) {
	if m.getTransactionFn != nil {
		return m.getTransactionFn(ctx, userID, txID)
	}
	return models.Transaction{}, store.ErrTransactionNotFound
}

func (m *mockLedgerService) ChargeUsage(ctx context.Context, userID int64, amount decimal.Decimal, taskID string) (models.Transaction, error) {
	if m.chargeUsageFn != nil {
		return m.chargeUsageFn(ctx, userID, amount, taskID)
	}
	return models.Transaction{}, nil
}

func (m *mockLedgerService) Metrics() LedgerMetrics {
	return LedgerMetrics{}
}

// ─────────────────────────────────────────────
// Mock: AgentService
// ─────────────────────────────────────────────

type mockAgentService struct {
	createAgentFn     func(ctx context.Context, ownerID int64, req models.CreateAgentRequest) (models.Agent, error)
	getAgentFn        func(ctx context.Context, agentID string) (models.Agent, error)
	listAgentsFn      func(ctx context.Context, ownerID int64) ([]models.Agent, error)
	updateAgentFn     func(ctx context.Context, ownerID int64, agentID string, req models.UpdateAgentRequest) (models.Agent, error)
	transitionAgentFn func(ctx context.Context, ownerID int64, agentID string, target models.AgentStatus) (models.Agent, error)
	beginWorkFn       func(ctx context.Context, agentID string) error
	finishWorkFn      func(ctx context.Context, agentID string, succeeded bool, responseTime float64) error
}

func (m *mockAgentService) CreateAgent(ctx context.Context, ownerID int64, req models.CreateAgentRequest) (models.Agent, error) {
	if m.createAgentFn != nil {
		return m.createAgentFn(ctx, ownerID, req)
	}
	return models.Agent{}, nil
}

func (m *mockAgentService) GetAgent(ctx context.Context, agentID string) (models.Agent, error) {
	if m.getAgentFn != nil {
		return m.getAgentFn(ctx, agentID)
	}
	return models.Agent{}, store.ErrAgentNotFound
}

func (m *mockAgentService) ListAgents(ctx context.Context, ownerID int64) ([]models.Agent, error) {
	if m.listAgentsFn != nil {
		return m.listAgentsFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockAgentService) UpdateAgent(ctx context.Context, ownerID int64, agentID string, req models.UpdateAgentRequest) (models.Agent, error) {
	if m.updateAgentFn != nil {
		return m.updateAgentFn(ctx, ownerID, agentID, req)
	}
	return models.Agent{}, nil
}

func (m *mockAgentService) TransitionAgent(ctx context.Context, ownerID int64, agentID string, target models.AgentStatus) (models.Agent, error) {
	if m.transitionAgentFn != nil {
		return m.transitionAgentFn(ctx, ownerID, agentID, target)
	}
	return models.Agent{}, nil
}

func (m *mockAgentService) BeginWork(ctx context.Context, agentID string) error {
	if m.beginWorkFn != nil {
		return m.beginWorkFn(ctx, agentID)
	}
	return nil
}

func (m *mockAgentService) FinishWork(ctx context.Context, agentID string, succeeded bool, responseTime float64) error {
	if m.finishWorkFn != nil {
		return m.finishWorkFn(ctx, agentID, succeeded, responseTime)
	}
	return nil
}

// ─────────────────────────────────────────────
// Mock: PricingService
// ─────────────────────────────────────────────

type mockPricingService struct {
	quoteFn            func(ctx context.Context, spec QuoteSpec) (models.CostEstimate, error)
	updateRateFn       func(ctx context.Context, serviceType models.ServiceType, model string, rate decimal.Decimal) error
	updateMultiplierFn func(ctx context.Context, kind, key string, value decimal.Decimal) error
	ratesFn            func(ctx context.Context) PriceStructure
	checkDailyLimitFn  func(ctx context.Context, userID int64) error
	recordUsageFn      func(ctx context.Context, usage models.ServiceUsage) error
	usageSummaryFn     func(ctx context.Context, userID int64, day time.Time) (models.UsageSummary, error)
}

func (m *mockPricingService) Quote(ctx context.Context, spec QuoteSpec) (models.CostEstimate, error) {
	if m.quoteFn != nil {
		return m.quoteFn(ctx, spec)
	}
	return models.CostEstimate{}, nil
}

func (m *mockPricingService) UpdateRate(ctx context.Context, serviceType models.ServiceType, model string, rate decimal.Decimal) error {
	if m.updateRateFn != nil {
		return m.updateRateFn(ctx, serviceType, model, rate)
	}
	return nil
}

func (m *mockPricingService) UpdateMultiplier(ctx context.Context, kind, key string, value decimal.Decimal) error {
	if m.updateMultiplierFn != nil {
		return m.updateMultiplierFn(ctx, kind, key, value)
	}
	return nil
}

func (m *mockPricingService) Rates(ctx context.Context) PriceStructure {
	if m.ratesFn != nil {
		return m.ratesFn(ctx)
	}
	return PriceStructure{}
}

func (m *mockPricingService) CheckDailyLimit(ctx context.Context, userID int64) error {
	if m.checkDailyLimitFn != nil {
		return m.checkDailyLimitFn(ctx, userID)
	}
	return nil
}

func (m *mockPricingService) RecordUsage(ctx context.Context, usage models.ServiceUsage) error {
	if m.recordUsageFn != nil {
		return m.recordUsageFn(ctx, usage)
	}
	return nil
}

func (m *mockPricingService) UsageSummary(ctx context.Context, userID int64, day time.Time) (models.UsageSummary, error) {
	if m.usageSummaryFn != nil {
		return m.usageSummaryFn(ctx, userID, day)
	}
	return models.UsageSummary{}, nil
}

// ─────────────────────────────────────────────
// Mock: provider.Runner
// ─────────────────────────────────────────────

type mockRunner struct {
	generateFn func(ctx context.Context, req provider.Request) (provider.Result, error)
}

func (m *mockRunner) Generate(ctx context.Context, req provider.Request) (provider.Result, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, req)
	}
	return provider.Result{}, nil
}
