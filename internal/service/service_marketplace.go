package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/store"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
	"github.com/MKhiriev/go-agent-platform/internal/validators"
	"github.com/MKhiriev/go-agent-platform/models"
)

// Search pagination bounds.
const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// marketplaceService is the concrete implementation of [MarketplaceService].
// The purchase itself happens inside the listing repository so that wallet
// moves, ownership transfer and listing state change commit atomically; this
// layer owns validation, fee parameters and the failure bookkeeping.
type marketplaceService struct {
	listingRepository     store.ListingRepository
	agentRepository       store.AgentRepository
	walletRepository      store.WalletRepository
	transactionRepository store.TransactionRepository

	validator validators.Validator
	uuid      *utils.UUIDGenerator

	feeRate         decimal.Decimal
	minListingPrice decimal.Decimal
	treasuryAddress string

	logger *logger.Logger
}

// NewMarketplaceService constructs a [MarketplaceService] with the fee and
// price floor from cfg.
func NewMarketplaceService(
	listingRepository store.ListingRepository,
	agentRepository store.AgentRepository,
	walletRepository store.WalletRepository,
	transactionRepository store.TransactionRepository,
	marketCfg config.Marketplace,
	chainCfg config.Chain,
	logger *logger.Logger,
) MarketplaceService {
	return &marketplaceService{
		listingRepository:     listingRepository,
		agentRepository:       agentRepository,
		walletRepository:      walletRepository,
		transactionRepository: transactionRepository,
		validator:             validators.NewRequestValidator(),
		uuid:                  utils.NewUUIDGenerator(),
		feeRate:               marketCfg.FeeRate(),
		minListingPrice:       marketCfg.MinListingPriceAmount(),
		treasuryAddress:       chainCfg.TreasuryAddress,
		logger:                logger,
	}
}

// CreateListing implements [MarketplaceService].
func (m *marketplaceService) CreateListing(ctx context.Context, sellerID int64, req models.CreateListingRequest) (models.Listing, error) {
	log := logger.FromContext(ctx)

	if err := m.validator.Validate(ctx, req); err != nil {
		log.Error().Err(err).Int64("seller_id", sellerID).Msg("invalid listing data")
		return models.Listing{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	price, err := parseAmount(req.Price)
	if err != nil {
		return models.Listing{}, err
	}
	if price.LessThan(m.minListingPrice) {
		return models.Listing{}, ErrPriceTooLow
	}

	agent, err := m.agentRepository.GetAgent(ctx, req.AgentID)
	if err != nil {
		return models.Listing{}, fmt.Errorf("agent lookup failed: %w", err)
	}
	if agent.OwnerID != sellerID {
		return models.Listing{}, ErrNotAgentOwner
	}
	if agent.Status == models.AgentRetired {
		return models.Listing{}, ErrAgentUnavailable
	}

	now := time.Now()
	listing := models.Listing{
		ListingID:   m.uuid.Generate(),
		AgentID:     req.AgentID,
		SellerID:    sellerID,
		Price:       price,
		Description: req.Description,
		Tags:        req.Tags,
		Status:      models.ListingActive,
		CreatedAt:   now,
	}
	if req.TTLHours > 0 {
		expiresAt := now.Add(time.Duration(req.TTLHours) * time.Hour)
		listing.ExpiresAt = &expiresAt
	}

	created, err := m.listingRepository.CreateListing(ctx, listing)
	if err != nil {
		log.Err(err).Str("agent_id", req.AgentID).Msg("listing creation ended with error")
		return models.Listing{}, fmt.Errorf("listing creation ended with error: %w", err)
	}

	log.Info().
		Str("listing_id", created.ListingID).
		Str("agent_id", created.AgentID).
		Str("price", price.String()).
		Msg("listing created")
	return created, nil
}

// GetListing implements [MarketplaceService]. The view counter is bumped
// best effort; a failed bump never fails the read.
func (m *marketplaceService) GetListing(ctx context.Context, listingID string) (models.Listing, error) {
	listing, err := m.listingRepository.GetListing(ctx, listingID)
	if err != nil {
		return models.Listing{}, fmt.Errorf("listing lookup failed: %w", err)
	}

	if err := m.listingRepository.IncrementViews(ctx, listingID); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("listing_id", listingID).Msg("view counter bump failed")
	} else {
		listing.Views++
	}

	return listing, nil
}

// SearchListings implements [MarketplaceService]. An empty status filters to
// active listings; the limit is clamped into [1, 100].
func (m *marketplaceService) SearchListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	if filter.Status == "" {
		filter.Status = models.ListingActive
	}
	if filter.Limit == 0 {
		filter.Limit = defaultSearchLimit
	}
	if filter.Limit > maxSearchLimit {
		filter.Limit = maxSearchLimit
	}

	listings, err := m.listingRepository.SearchListings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing search failed: %w", err)
	}
	return listings, nil
}

// UpdateListing implements [MarketplaceService].
func (m *marketplaceService) UpdateListing(ctx context.Context, sellerID int64, listingID string, req models.UpdateListingRequest) (models.Listing, error) {
	log := logger.FromContext(ctx)

	if err := m.validator.Validate(ctx, req); err != nil {
		log.Error().Err(err).Str("listing_id", listingID).Msg("invalid listing update")
		return models.Listing{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	if req.Price != nil {
		price, err := parseAmount(*req.Price)
		if err != nil {
			return models.Listing{}, err
		}
		if price.LessThan(m.minListingPrice) {
			return models.Listing{}, ErrPriceTooLow
		}
	}

	updated, err := m.listingRepository.UpdateListing(ctx, listingID, sellerID, req)
	if err != nil {
		log.Err(err).Str("listing_id", listingID).Msg("listing update ended with error")
		return models.Listing{}, fmt.Errorf("listing update ended with error: %w", err)
	}

	return updated, nil
}

// CancelListing implements [MarketplaceService].
func (m *marketplaceService) CancelListing(ctx context.Context, sellerID int64, listingID string) error {
	if err := m.listingRepository.CancelListing(ctx, listingID, sellerID); err != nil {
		return fmt.Errorf("listing cancellation failed: %w", err)
	}

	logger.FromContext(ctx).Info().Str("listing_id", listingID).Msg("listing cancelled")
	return nil
}

// Purchase implements [MarketplaceService]. Settlement is delegated to the
// repository transaction; an uncovered balance additionally leaves a failed
// purchase entry in the buyer's ledger history.
func (m *marketplaceService) Purchase(ctx context.Context, buyerID int64, listingID string) (store.PurchaseResult, error) {
	log := logger.FromContext(ctx)

	result, err := m.listingRepository.ExecutePurchase(ctx, store.PurchaseParams{
		ListingID:       listingID,
		BuyerID:         buyerID,
		FeeRate:         m.feeRate,
		TreasuryAddress: m.treasuryAddress,
		PurchaseTxID:    m.uuid.Generate(),
		FeeTxID:         m.uuid.Generate(),
		Now:             time.Now(),
	})
	if err != nil {
		if errors.Is(err, store.ErrInsufficientBalance) {
			m.recordFailedPurchase(ctx, buyerID, listingID)
		}
		log.Warn().Err(err).Str("listing_id", listingID).Int64("buyer_id", buyerID).Msg("purchase rejected")
		return store.PurchaseResult{}, err
	}

	log.Info().
		Str("listing_id", listingID).
		Str("agent_id", result.Agent.AgentID).
		Int64("buyer_id", buyerID).
		Str("total", result.Total.String()).
		Msg("purchase settled")
	return result, nil
}

// ToggleFavorite implements [MarketplaceService].
func (m *marketplaceService) ToggleFavorite(ctx context.Context, userID int64, listingID string) (bool, int64, error) {
	favorited, count, err := m.listingRepository.ToggleFavorite(ctx, listingID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("favorite toggle failed: %w", err)
	}
	return favorited, count, nil
}

// ExpireListings implements [MarketplaceService].
func (m *marketplaceService) ExpireListings(ctx context.Context, now time.Time) (int64, error) {
	expired, err := m.listingRepository.ExpireListings(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("listing expiry sweep failed: %w", err)
	}

	if expired > 0 {
		logger.FromContext(ctx).Info().Int64("expired", expired).Msg("listings expired")
	}
	return expired, nil
}

// recordFailedPurchase writes the failed attempt into the ledger so the
// buyer's history shows it. Best effort.
func (m *marketplaceService) recordFailedPurchase(ctx context.Context, buyerID int64, listingID string) {
	log := logger.FromContext(ctx)

	listing, err := m.listingRepository.GetListing(ctx, listingID)
	if err != nil {
		log.Warn().Err(err).Str("listing_id", listingID).Msg("failed purchase bookkeeping skipped")
		return
	}

	buyerWallet, err := m.walletRepository.GetWalletByUser(ctx, buyerID)
	if err != nil {
		log.Warn().Err(err).Int64("buyer_id", buyerID).Msg("failed purchase bookkeeping skipped")
		return
	}

	sellerWallet, err := m.walletRepository.GetWalletByUser(ctx, listing.SellerID)
	if err != nil {
		log.Warn().Err(err).Int64("seller_id", listing.SellerID).Msg("failed purchase bookkeeping skipped")
		return
	}

	_, err = m.transactionRepository.RecordTransaction(ctx, models.Transaction{
		TxID:        m.uuid.Generate(),
		FromAddress: buyerWallet.Address,
		ToAddress:   sellerWallet.Address,
		Amount:      listing.Price,
		Type:        models.TxPurchase,
		Status:      models.TxFailed,
		Reference:   listingID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		log.Warn().Err(err).Str("listing_id", listingID).Msg("failed purchase entry not recorded")
	}
}
