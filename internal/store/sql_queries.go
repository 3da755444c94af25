package store

// SQL text used by the PostgreSQL repositories. Queries that need dynamic
// WHERE or SET clauses (listing search, partial updates) are built with
// squirrel instead; see the respective repository files.

const (
	createUser = `INSERT INTO users (email, username, password_hash)
    VALUES ($1, $2, $3)
    RETURNING user_id, email, username, password_hash, is_active, is_superuser, created_at, updated_at;`

	findUserByEmail = `SELECT user_id, email, username, password_hash, is_active, is_superuser, created_at, updated_at
    FROM users
    WHERE email = $1;`

	getUser = `SELECT user_id, email, username, password_hash, is_active, is_superuser, created_at, updated_at
    FROM users
    WHERE user_id = $1;`
)

const (
	createSession = `INSERT INTO sessions (session_id, user_id, token_hash, expires_at)
    VALUES ($1, $2, $3, $4)
    RETURNING session_id, user_id, token_hash, expires_at, created_at, revoked;`

	findSessionByTokenHash = `SELECT session_id, user_id, token_hash, expires_at, created_at, revoked
    FROM sessions
    WHERE token_hash = $1;`

	revokeSession = `UPDATE sessions SET revoked = TRUE WHERE session_id = $1;`

	deleteExpiredSessions = `DELETE FROM sessions WHERE expires_at < $1;`
)

const (
	createAgent = `INSERT INTO agents (agent_id, owner_id, name, description, type, status, config)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING agent_id, owner_id, name, description, type, status, config,
        total_tasks, successful_tasks, failed_tasks, avg_response_time, created_at, updated_at;`

	getAgent = `SELECT agent_id, owner_id, name, description, type, status, config,
        total_tasks, successful_tasks, failed_tasks, avg_response_time, created_at, updated_at
    FROM agents
    WHERE agent_id = $1;`

	listAgentsByOwner = `SELECT agent_id, owner_id, name, description, type, status, config,
        total_tasks, successful_tasks, failed_tasks, avg_response_time, created_at, updated_at
    FROM agents
    WHERE owner_id = $1
    ORDER BY created_at DESC;`

	countAgentsByOwner = `SELECT COUNT(*) FROM agents WHERE owner_id = $1 AND status <> 'retired';`

	updateAgentStatus = `UPDATE agents SET status = $1, updated_at = NOW()
    WHERE agent_id = $2 AND status = $3;`

	agentExists = `SELECT EXISTS (SELECT 1 FROM agents WHERE agent_id = $1);`

	// avg_response_time keeps the running mean: avg' = avg + (sample-avg)/n.
	recordAgentResult = `UPDATE agents SET
        total_tasks = total_tasks + 1,
        successful_tasks = successful_tasks + CASE WHEN $1 THEN 1 ELSE 0 END,
        failed_tasks = failed_tasks + CASE WHEN $1 THEN 0 ELSE 1 END,
        avg_response_time = avg_response_time + ($2 - avg_response_time) / (total_tasks + 1),
        updated_at = NOW()
    WHERE agent_id = $3;`
)

const (
	createTask = `INSERT INTO agent_tasks (task_id, agent_id, user_id, type, priority, status, payload, queued_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING task_id, agent_id, user_id, type, priority, status, payload, result, error, cost,
        queued_at, started_at, completed_at;`

	getTask = `SELECT task_id, agent_id, user_id, type, priority, status, payload, result, error, cost,
        queued_at, started_at, completed_at
    FROM agent_tasks
    WHERE task_id = $1;`

	listTasksByAgent = `SELECT task_id, agent_id, user_id, type, priority, status, payload, result, error, cost,
        queued_at, started_at, completed_at
    FROM agent_tasks
    WHERE agent_id = $1
    ORDER BY queued_at DESC
    LIMIT $2;`

	listTasksByUser = `SELECT task_id, agent_id, user_id, type, priority, status, payload, result, error, cost,
        queued_at, started_at, completed_at
    FROM agent_tasks
    WHERE user_id = $1
    ORDER BY queued_at DESC
    LIMIT $2;`

	markTaskRunning = `UPDATE agent_tasks SET status = 'running', started_at = $1
    WHERE task_id = $2 AND status = 'queued';`

	completeTask = `UPDATE agent_tasks SET status = 'completed', result = $1, cost = $2, completed_at = $3
    WHERE task_id = $4;`

	failTask = `UPDATE agent_tasks SET status = $1, error = $2, completed_at = $3
    WHERE task_id = $4;`

	listUnfinishedTasks = `SELECT task_id, agent_id, user_id, type, priority, status, payload, result, error, cost,
        queued_at, started_at, completed_at
    FROM agent_tasks
    WHERE status IN ('queued', 'running')
    ORDER BY queued_at ASC;`
)

const (
	createListing = `INSERT INTO listings (listing_id, agent_id, seller_id, price, description, tags, status, expires_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING listing_id, agent_id, seller_id, buyer_id, price, description, tags, status,
        views, favorites, created_at, expires_at, sold_at;`

	getListing = `SELECT listing_id, agent_id, seller_id, buyer_id, price, description, tags, status,
        views, favorites, created_at, expires_at, sold_at
    FROM listings
    WHERE listing_id = $1;`

	getListingForUpdate = `SELECT listing_id, agent_id, seller_id, buyer_id, price, description, tags, status,
        views, favorites, created_at, expires_at, sold_at
    FROM listings
    WHERE listing_id = $1
    FOR UPDATE;`

	cancelListing = `UPDATE listings SET status = 'cancelled'
    WHERE listing_id = $1 AND seller_id = $2 AND status = 'active';`

	expireListings = `UPDATE listings SET status = 'expired'
    WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at < $1;`

	incrementListingViews = `UPDATE listings SET views = views + 1 WHERE listing_id = $1;`

	findListingFavorite   = `SELECT EXISTS (SELECT 1 FROM listing_favorites WHERE listing_id = $1 AND user_id = $2);`
	insertListingFavorite = `INSERT INTO listing_favorites (listing_id, user_id) VALUES ($1, $2);`
	deleteListingFavorite = `DELETE FROM listing_favorites WHERE listing_id = $1 AND user_id = $2;`

	bumpListingFavorites = `UPDATE listings SET favorites = favorites + $1
    WHERE listing_id = $2
    RETURNING favorites;`

	markListingSold = `UPDATE listings SET status = 'sold', buyer_id = $1, sold_at = $2
    WHERE listing_id = $3;`

	transferAgentOwner = `UPDATE agents SET owner_id = $1, updated_at = NOW() WHERE agent_id = $2;`
)

const (
	createWallet = `INSERT INTO wallets (user_id, address)
    VALUES ($1, $2)
    RETURNING wallet_id, user_id, address, balance, staked_balance, created_at, updated_at;`

	getWalletByUser = `SELECT wallet_id, user_id, address, balance, staked_balance, created_at, updated_at
    FROM wallets
    WHERE user_id = $1;`

	getWalletByAddress = `SELECT wallet_id, user_id, address, balance, staked_balance, created_at, updated_at
    FROM wallets
    WHERE address = $1;`

	// Row locks are always taken in wallet_id order so that concurrent
	// transfers touching the same pair of wallets cannot deadlock.
	lockWalletsByAddress = `SELECT wallet_id, user_id, address, balance, staked_balance, created_at, updated_at
    FROM wallets
    WHERE address = ANY($1)
    ORDER BY wallet_id
    FOR UPDATE;`

	lockPurchaseWallets = `SELECT wallet_id, user_id, address, balance, staked_balance, created_at, updated_at
    FROM wallets
    WHERE user_id = ANY($1) OR address = $2
    ORDER BY wallet_id
    FOR UPDATE;`

	lockWalletByUser = `SELECT wallet_id, user_id, address, balance, staked_balance, created_at, updated_at
    FROM wallets
    WHERE user_id = $1
    FOR UPDATE;`

	setWalletBalance = `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE wallet_id = $2;`

	setWalletBalances = `UPDATE wallets SET balance = $1, staked_balance = $2, updated_at = NOW()
    WHERE wallet_id = $3
    RETURNING wallet_id, user_id, address, balance, staked_balance, created_at, updated_at;`

	insertTreasury = `INSERT INTO wallets (user_id, address, balance)
    VALUES (0, $1, $2)
    ON CONFLICT (user_id) DO NOTHING;`
)

const (
	recordTransaction = `INSERT INTO transactions (tx_id, from_address, to_address, amount, type, status, reference, created_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING tx_id, from_address, to_address, amount, type, status, reference, created_at;`

	getTransaction = `SELECT tx_id, from_address, to_address, amount, type, status, reference, created_at
    FROM transactions
    WHERE tx_id = $1;`

	listTransactionsByAddress = `SELECT tx_id, from_address, to_address, amount, type, status, reference, created_at
    FROM transactions
    WHERE from_address = $1 OR to_address = $1
    ORDER BY created_at DESC
    LIMIT $2;`
)

const (
	recordUsage = `INSERT INTO service_usage (user_id, agent_id, task_id, provider, type, units, cost)
    VALUES ($1, $2, $3, $4, $5, $6, $7);`

	summarizeUsageDay = `SELECT COUNT(*), COALESCE(SUM(cost), 0)
    FROM service_usage
    WHERE user_id = $1 AND created_at >= $2 AND created_at < $3;`
)
