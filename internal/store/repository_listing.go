package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/shopspring/decimal"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/models"
)

// listingColumns is the canonical column list scanned by [scanListing].
const listingColumns = `listing_id, agent_id, seller_id, buyer_id, price, description, tags, status,
        views, favorites, created_at, expires_at, sold_at`

// listingRepository is the PostgreSQL-backed implementation of
// [ListingRepository]. Purchases run as a single database transaction that
// locks the listing row and all three wallets involved, so two buyers racing
// for the same listing serialize and the loser observes it as already sold.
type listingRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewListingRepository constructs a [ListingRepository] backed by the
// provided database connection and logger.
func NewListingRepository(db *DB, logger *logger.Logger) ListingRepository {
	logger.Debug().Msg("creating listing repository")
	return &listingRepository{
		db:     db,
		logger: logger,
	}
}

// marshalTags encodes tags for the JSONB column. Empty tag sets are stored as
// NULL rather than "[]".
func marshalTags(tags []string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	return json.Marshal(tags)
}

// scanListing reads one listing row in [listingColumns] order, decoding the
// JSONB tags column.
func scanListing(row rowScanner) (models.Listing, error) {
	var (
		listing models.Listing
		rawTags []byte
	)

	err := row.Scan(
		&listing.ListingID,
		&listing.AgentID,
		&listing.SellerID,
		&listing.BuyerID,
		&listing.Price,
		&listing.Description,
		&rawTags,
		&listing.Status,
		&listing.Views,
		&listing.Favorites,
		&listing.CreatedAt,
		&listing.ExpiresAt,
		&listing.SoldAt,
	)
	if err != nil {
		return models.Listing{}, err
	}

	if len(rawTags) > 0 {
		if err := json.Unmarshal(rawTags, &listing.Tags); err != nil {
			return models.Listing{}, fmt.Errorf("%w: decoding tags: %w", ErrScanningRow, err)
		}
	}

	return listing, nil
}

// CreateListing inserts a new listing and returns it with server-assigned
// fields populated.
//
// Error handling:
//   - unique_violation on the partial "one active listing per agent" index →
//     [ErrListingAlreadyActive].
//   - foreign_key_violation on agent_id → [ErrAgentNotFound].
func (r *listingRepository) CreateListing(ctx context.Context, listing models.Listing) (models.Listing, error) {
	log := logger.FromContext(ctx)

	tags, err := marshalTags(listing.Tags)
	if err != nil {
		return models.Listing{}, fmt.Errorf("%w: encoding tags: %w", ErrBuildingSQLQuery, err)
	}

	row := r.db.QueryRowContext(ctx, createListing,
		listing.ListingID, listing.AgentID, listing.SellerID, listing.Price,
		listing.Description, tags, listing.Status, listing.ExpiresAt)

	saved, err := scanListing(row)
	if err != nil {
		log.Err(err).
			Str("func", "*listingRepository.CreateListing").
			Str("agent_id", listing.AgentID).
			Int64("seller_id", listing.SellerID).
			Msg("error: creating listing")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.Listing{}, ErrListingAlreadyActive
		case pgerrcode.ForeignKeyViolation:
			return models.Listing{}, ErrAgentNotFound
		default:
			return models.Listing{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	return saved, nil
}

// GetListing retrieves the listing with the given ID, or [ErrListingNotFound].
func (r *listingRepository) GetListing(ctx context.Context, listingID string) (models.Listing, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, getListing, listingID)

	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Listing{}, ErrListingNotFound
		}

		log.Err(err).
			Str("func", "*listingRepository.GetListing").
			Str("listing_id", listingID).
			Msg("error: getting listing")
		return models.Listing{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return listing, nil
}

// buildSearchListingsQuery assembles the filtered marketplace search. Zero
// values in filter contribute no WHERE clause.
func buildSearchListingsQuery(filter models.ListingFilter) (string, []any, error) {
	builder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(listingColumns).
		From("listings")

	if filter.SellerID != 0 {
		builder = builder.Where(sq.Eq{"seller_id": filter.SellerID})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.ServiceType != "" {
		builder = builder.Where(
			sq.Expr("agent_id IN (SELECT agent_id FROM agents WHERE type = ?)", filter.ServiceType))
	}
	if filter.Tag != "" {
		tag, err := json.Marshal([]string{filter.Tag})
		if err != nil {
			return "", nil, err
		}
		builder = builder.Where(sq.Expr("tags @> ?", tag))
	}
	if !filter.MinPrice.IsZero() {
		builder = builder.Where(sq.GtOrEq{"price": filter.MinPrice})
	}
	if !filter.MaxPrice.IsZero() {
		builder = builder.Where(sq.LtOrEq{"price": filter.MaxPrice})
	}
	if filter.Query != "" {
		builder = builder.Where(sq.ILike{"description": "%" + filter.Query + "%"})
	}

	builder = builder.OrderBy("created_at DESC")

	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		builder = builder.Offset(filter.Offset)
	}

	return builder.ToSql()
}

// SearchListings retrieves listings matching the filter, newest first.
func (r *listingRepository) SearchListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildSearchListingsQuery(filter)
	if err != nil {
		log.Err(err).
			Str("func", "*listingRepository.SearchListings").
			Msg("failed to build search query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "*listingRepository.SearchListings").
			Msg("failed to execute search query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	listings := make([]models.Listing, 0, 20)

	for rows.Next() {
		listing, scanErr := scanListing(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "*listingRepository.SearchListings").
				Msg("failed to scan listing row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		listings = append(listings, listing)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "*listingRepository.SearchListings").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return listings, nil
}

// buildUpdateListingQuery assembles the partial UPDATE for [UpdateListing].
// Only active listings owned by sellerID match.
func buildUpdateListingQuery(listingID string, sellerID int64, update models.UpdateListingRequest) (string, []any, error) {
	builder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Update("listings")

	changed := false

	if update.Description != nil {
		builder = builder.Set("description", *update.Description)
		changed = true
	}
	if update.Price != nil {
		price, err := decimal.NewFromString(*update.Price)
		if err != nil {
			return "", nil, fmt.Errorf("parsing price: %w", err)
		}
		builder = builder.Set("price", price)
		changed = true
	}
	if update.Tags != nil {
		tags, err := marshalTags(*update.Tags)
		if err != nil {
			return "", nil, fmt.Errorf("encoding tags: %w", err)
		}
		builder = builder.Set("tags", tags)
		changed = true
	}

	if !changed {
		return "", nil, errors.New("no fields to update")
	}

	return builder.
		Where(sq.Eq{"listing_id": listingID, "seller_id": sellerID, "status": models.ListingActive}).
		Suffix("RETURNING " + listingColumns).
		ToSql()
}

// UpdateListing applies a partial update to an active listing owned by
// sellerID and returns the updated listing.
//
// Error handling:
//   - Unknown listing, or one owned by someone else → [ErrListingNotFound].
//   - Listing exists and is the seller's but is no longer active →
//     [ErrListingNotActive].
func (r *listingRepository) UpdateListing(ctx context.Context, listingID string, sellerID int64, update models.UpdateListingRequest) (models.Listing, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildUpdateListingQuery(listingID, sellerID, update)
	if err != nil {
		log.Err(err).
			Str("func", "*listingRepository.UpdateListing").
			Str("listing_id", listingID).
			Msg("failed to build update query")
		return models.Listing{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)

	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Listing{}, r.explainListingMiss(ctx, listingID, sellerID)
		}

		log.Err(err).
			Str("func", "*listingRepository.UpdateListing").
			Str("listing_id", listingID).
			Msg("error: updating listing")
		return models.Listing{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return listing, nil
}

// CancelListing cancels an active listing owned by sellerID.
//
// Error handling mirrors [UpdateListing]: foreign or unknown listings yield
// [ErrListingNotFound], non-active ones [ErrListingNotActive].
func (r *listingRepository) CancelListing(ctx context.Context, listingID string, sellerID int64) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, cancelListing, listingID, sellerID)
	if err != nil {
		log.Err(err).
			Str("func", "*listingRepository.CancelListing").
			Str("listing_id", listingID).
			Msg("error: cancelling listing")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unexpected DB error: %w", err)
	}
	if affected == 0 {
		return r.explainListingMiss(ctx, listingID, sellerID)
	}

	return nil
}

// explainListingMiss distinguishes "listing does not exist / is not yours"
// from "listing exists but is not active" after a guarded UPDATE matched no
// rows.
func (r *listingRepository) explainListingMiss(ctx context.Context, listingID string, sellerID int64) error {
	listing, err := r.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.SellerID != sellerID {
		return ErrListingNotFound
	}
	return ErrListingNotActive
}

// ExpireListings marks active listings whose expiry time has passed as
// expired and returns the number of rows changed. Called periodically by the
// marketplace sweeper.
func (r *listingRepository) ExpireListings(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, expireListings, now)
	if err != nil {
		log.Err(err).
			Str("func", "*listingRepository.ExpireListings").
			Msg("error: expiring listings")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	expired, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("unexpected DB error: %w", err)
	}

	return expired, nil
}

// IncrementViews bumps the listing's view counter. The count is best effort
// and not part of any invariant, so a miss on an unknown listing is not an
// error.
func (r *listingRepository) IncrementViews(ctx context.Context, listingID string) error {
	log := logger.FromContext(ctx)

	if _, err := r.db.ExecContext(ctx, incrementListingViews, listingID); err != nil {
		log.Err(err).
			Str("func", "*listingRepository.IncrementViews").
			Str("listing_id", listingID).
			Msg("error: incrementing views")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// ToggleFavorite adds or removes the user's bookmark on the listing and
// returns whether the listing is now favorited plus the new favorite count.
// The membership check and the counter update run in one transaction so the
// counter cannot drift from the bookmark rows.
func (r *listingRepository) ToggleFavorite(ctx context.Context, listingID string, userID int64) (bool, int64, error) {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "*listingRepository.ToggleFavorite").
			Msg("failed to begin transaction")
		return false, 0, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	var favorited bool
	if err := tx.QueryRowContext(ctx, findListingFavorite, listingID, userID).Scan(&favorited); err != nil {
		log.Err(err).
			Str("func", "*listingRepository.ToggleFavorite").
			Str("listing_id", listingID).
			Msg("error: checking favorite")
		return false, 0, fmt.Errorf("unexpected DB error: %w", err)
	}

	delta := int64(1)
	if favorited {
		delta = -1
		if _, err := tx.ExecContext(ctx, deleteListingFavorite, listingID, userID); err != nil {
			log.Err(err).
				Str("func", "*listingRepository.ToggleFavorite").
				Str("listing_id", listingID).
				Msg("error: removing favorite")
			return false, 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, insertListingFavorite, listingID, userID); err != nil {
			log.Err(err).
				Str("func", "*listingRepository.ToggleFavorite").
				Str("listing_id", listingID).
				Msg("error: adding favorite")

			switch postgresError(err) {
			case pgerrcode.ForeignKeyViolation:
				return false, 0, ErrListingNotFound
			default:
				return false, 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
			}
		}
	}

	var favorites int64
	if err := tx.QueryRowContext(ctx, bumpListingFavorites, delta, listingID).Scan(&favorites); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, 0, ErrListingNotFound
		}

		log.Err(err).
			Str("func", "*listingRepository.ToggleFavorite").
			Str("listing_id", listingID).
			Msg("error: updating favorite count")
		return false, 0, fmt.Errorf("unexpected DB error: %w", err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "*listingRepository.ToggleFavorite").
			Msg("failed to commit transaction")
		return false, 0, fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return !favorited, favorites, nil
}

// purchaseAttempts bounds how often a settlement is retried after a
// transient failure (deadlock, serialization conflict, dropped connection).
const purchaseAttempts = 3

// ExecutePurchase atomically settles a marketplace purchase.
//
// Inside one transaction it:
//  1. locks the listing row (FOR UPDATE) and validates it is purchasable
//     by this buyer;
//  2. locks the buyer, seller and treasury wallets in wallet_id order;
//  3. verifies the buyer covers price plus fee, then moves the price to the
//     seller and the fee to the treasury;
//  4. transfers agent ownership to the buyer;
//  5. marks the listing sold and records the purchase and fee ledger entries.
//
// Any error rolls the whole settlement back. Errors the database classifier
// marks retryable restart the settlement from scratch, up to
// [purchaseAttempts] times.
func (r *listingRepository) ExecutePurchase(ctx context.Context, params PurchaseParams) (PurchaseResult, error) {
	log := logger.FromContext(ctx)

	var result PurchaseResult
	var err error
	for attempt := 1; attempt <= purchaseAttempts; attempt++ {
		result, err = r.executePurchase(ctx, params)
		if err == nil || r.db.errorClassificator.Classify(err) != Retryable {
			return result, err
		}

		log.Warn().Err(err).
			Str("listing_id", params.ListingID).
			Int("attempt", attempt).
			Msg("transient database error, retrying purchase")
	}

	return result, err
}

func (r *listingRepository) executePurchase(ctx context.Context, params PurchaseParams) (PurchaseResult, error) {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "*listingRepository.ExecutePurchase").
			Msg("failed to begin transaction")
		return PurchaseResult{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	// 1. Lock and validate the listing.
	listing, err := scanListing(tx.QueryRowContext(ctx, getListingForUpdate, params.ListingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PurchaseResult{}, ErrListingNotFound
		}

		log.Err(err).
			Str("func", "*listingRepository.ExecutePurchase").
			Str("listing_id", params.ListingID).
			Msg("failed to lock listing")
		return PurchaseResult{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if !listing.Purchasable(params.Now) {
		return PurchaseResult{}, ErrListingNotActive
	}
	if listing.SellerID == params.BuyerID {
		return PurchaseResult{}, ErrOwnListingPurchase
	}

	price := listing.Price
	fee := price.Mul(params.FeeRate)
	total := price.Add(fee)

	// 2. Lock the three wallets involved.
	rows, err := tx.QueryContext(ctx, lockPurchaseWallets,
		[]int64{params.BuyerID, listing.SellerID}, params.TreasuryAddress)
	if err != nil {
		log.Err(err).
			Str("func", "*listingRepository.ExecutePurchase").
			Msg("failed to lock wallets")
		return PurchaseResult{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	var buyer, seller, treasury models.Wallet
	for rows.Next() {
		wallet, scanErr := scanWallet(rows)
		if scanErr != nil {
			rows.Close()
			return PurchaseResult{}, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		switch {
		case wallet.UserID == params.BuyerID:
			buyer = wallet
		case wallet.UserID == listing.SellerID:
			seller = wallet
		case wallet.Address == params.TreasuryAddress:
			treasury = wallet
		}
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		rows.Close()
		return PurchaseResult{}, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}
	rows.Close()

	if buyer.WalletID == 0 || seller.WalletID == 0 || treasury.WalletID == 0 {
		return PurchaseResult{}, ErrWalletNotFound
	}

	// 3. Settle the balances.
	if !buyer.CanSpend(total) {
		return PurchaseResult{}, ErrInsufficientBalance
	}

	balanceUpdates := []struct {
		balance  decimal.Decimal
		walletID int64
	}{
		{buyer.Balance.Sub(total), buyer.WalletID},
		{seller.Balance.Add(price), seller.WalletID},
		{treasury.Balance.Add(fee), treasury.WalletID},
	}
	for _, update := range balanceUpdates {
		if _, err := tx.ExecContext(ctx, setWalletBalance, update.balance, update.walletID); err != nil {
			log.Err(err).
				Str("func", "*listingRepository.ExecutePurchase").
				Int64("wallet_id", update.walletID).
				Msg("failed to update wallet balance")
			return PurchaseResult{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	// 4. Transfer agent ownership.
	if _, err := tx.ExecContext(ctx, transferAgentOwner, params.BuyerID, listing.AgentID); err != nil {
		log.Err(err).
			Str("func", "*listingRepository.ExecutePurchase").
			Str("agent_id", listing.AgentID).
			Msg("failed to transfer agent ownership")
		return PurchaseResult{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	// 5. Close the listing and record both ledger entries.
	if _, err := tx.ExecContext(ctx, markListingSold, params.BuyerID, params.Now, params.ListingID); err != nil {
		log.Err(err).
			Str("func", "*listingRepository.ExecutePurchase").
			Str("listing_id", params.ListingID).
			Msg("failed to mark listing sold")
		return PurchaseResult{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	ledgerEntries := []models.Transaction{
		{
			TxID:        params.PurchaseTxID,
			FromAddress: buyer.Address,
			ToAddress:   seller.Address,
			Amount:      price,
			Type:        models.TxPurchase,
			Status:      models.TxConfirmed,
			Reference:   params.ListingID,
			CreatedAt:   params.Now,
		},
		{
			TxID:        params.FeeTxID,
			FromAddress: buyer.Address,
			ToAddress:   treasury.Address,
			Amount:      fee,
			Type:        models.TxFee,
			Status:      models.TxConfirmed,
			Reference:   params.ListingID,
			CreatedAt:   params.Now,
		},
	}
	for _, entry := range ledgerEntries {
		row := tx.QueryRowContext(ctx, recordTransaction,
			entry.TxID, entry.FromAddress, entry.ToAddress, entry.Amount,
			entry.Type, entry.Status, entry.Reference, entry.CreatedAt)

		if _, err := scanTransaction(row); err != nil {
			log.Err(err).
				Str("func", "*listingRepository.ExecutePurchase").
				Str("tx_id", entry.TxID).
				Msg("failed to record ledger entry")
			return PurchaseResult{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	// Re-read the agent after the ownership change so the caller gets the
	// final state.
	agent, err := scanAgent(tx.QueryRowContext(ctx, getAgent, listing.AgentID))
	if err != nil {
		log.Err(err).
			Str("func", "*listingRepository.ExecutePurchase").
			Str("agent_id", listing.AgentID).
			Msg("failed to read transferred agent")
		return PurchaseResult{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "*listingRepository.ExecutePurchase").
			Str("listing_id", params.ListingID).
			Msg("failed to commit transaction")
		return PurchaseResult{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	listing.Status = models.ListingSold
	listing.BuyerID = &params.BuyerID
	soldAt := params.Now
	listing.SoldAt = &soldAt

	return PurchaseResult{
		Listing: listing,
		Agent:   agent,
		Price:   price,
		Fee:     fee,
		Total:   total,
	}, nil
}
