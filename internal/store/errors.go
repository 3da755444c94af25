package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrUserAlreadyExists is returned when an attempt to register a new user
	// fails because the email or username is already taken.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrUserNotFound is returned when a query expected to match a user
	// record produces an empty result set.
	ErrUserNotFound = errors.New("user not found")

	// ErrSessionNotFound is returned when a refresh-token session lookup or
	// revocation targets a session that does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAgentNotFound is returned when a query or update targets an agent
	// that does not exist.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrAgentNameTaken is returned when creating an agent whose name is
	// already used by another agent of the same owner.
	ErrAgentNameTaken = errors.New("agent name already taken")

	// ErrStatusConflict is returned when a compare-and-set status update
	// finds the agent in a different status than expected, meaning another
	// request changed it concurrently.
	ErrStatusConflict = errors.New("agent status changed concurrently")

	// ErrTaskNotFound is returned when a query or update targets a task that
	// does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrListingNotFound is returned when a query or update targets a
	// listing that does not exist or is not visible to the caller.
	ErrListingNotFound = errors.New("listing not found")

	// ErrListingNotActive is returned when an update, cancellation or
	// purchase targets a listing that is no longer active.
	ErrListingNotActive = errors.New("listing is not active")

	// ErrListingAlreadyActive is returned when creating a listing for an
	// agent that already has an active listing.
	ErrListingAlreadyActive = errors.New("agent already has an active listing")

	// ErrOwnListingPurchase is returned when a buyer attempts to purchase
	// their own listing.
	ErrOwnListingPurchase = errors.New("cannot purchase own listing")

	// ErrWalletNotFound is returned when a wallet lookup by user or address
	// produces an empty result set.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInsufficientBalance is returned when a transfer, stake or purchase
	// is not covered by the spendable balance of the paying wallet.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrTransactionNotFound is returned when a ledger entry lookup produces
	// an empty result set.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)
