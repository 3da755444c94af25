// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package devstack

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MKhiriev/go-agent-platform/internal/chain"
	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/store"
	"github.com/MKhiriev/go-agent-platform/migrations"
)

// defaultProbeTimeout bounds each single readiness probe.
const defaultProbeTimeout = 5 * time.Second

// Options tune a provisioning run.
type Options struct {
	// NodeBinary is the dev chain node executable, e.g. "anvil".
	NodeBinary string

	// NodeArgs are passed to the node binary on start.
	NodeArgs []string

	// SkipChain disables the node binary check, the node start and the
	// chain RPC probe. For machines without the node binary installed.
	SkipChain bool

	// Workspace is the root directory for node data and log files.
	Workspace string

	// ProbeTimeout bounds each readiness probe. Zero means the default.
	ProbeTimeout time.Duration
}

func (o Options) probeTimeout() time.Duration {
	if o.ProbeTimeout <= 0 {
		return defaultProbeTimeout
	}
	return o.ProbeTimeout
}

func (o Options) workspace() string {
	if o.Workspace == "" {
		return ".devstack"
	}
	return o.Workspace
}

// Provisioner owns one provisioning run: the step list and the dev node
// process started along the way.
type Provisioner struct {
	cfg    *config.Config
	opts   Options
	logger *logger.Logger

	node    *chain.Node
	nodeLog *os.File
}

func NewProvisioner(cfg *config.Config, opts Options, log *logger.Logger) *Provisioner {
	return &Provisioner{cfg: cfg, opts: opts, logger: log}
}

// Steps returns the provisioning steps in execution order.
func (p *Provisioner) Steps() []Step {
	return []Step{
		{Name: "check required tools", Run: p.checkTools},
		{Name: "prepare workspace", Run: p.prepareWorkspace},
		{Name: "check PostgreSQL", Run: p.checkPostgres},
		{Name: "provision role and databases", Run: p.provisionDatabases},
		{Name: "check Redis", Run: p.checkRedis},
		{Name: "start dev chain node", Run: p.startNode},
		{Name: "apply migrations", Run: p.applyMigrations},
		{Name: "run diagnostics", Run: p.diagnose},
		{Name: "cleanup", Run: p.cleanup},
	}
}

// StepNames returns the step names in execution order, for progress views.
func (p *Provisioner) StepNames() []string {
	steps := p.Steps()
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}

// Run executes all steps. A node started during the run is stopped before
// Run returns, whatever the outcome.
func (p *Provisioner) Run(ctx context.Context, events chan<- Event) error {
	defer p.StopNode(context.Background())

	return NewRunner(p.Steps(), p.logger).Run(ctx, events)
}

// StopNode terminates the dev node if this run started one. Safe to call
// more than once.
func (p *Provisioner) StopNode(ctx context.Context) {
	if p.node != nil && p.node.Running() {
		if err := p.node.Stop(ctx); err != nil {
			p.logger.Err(err).Msg("error stopping dev node")
		}
	}

	if p.nodeLog != nil {
		_ = p.nodeLog.Close()
		p.nodeLog = nil
	}
}

// NodeRunning reports whether the dev node started by this run is still up.
func (p *Provisioner) NodeRunning() bool {
	return p.node != nil && p.node.Running()
}

func (p *Provisioner) checkTools(context.Context) error {
	if p.opts.SkipChain {
		p.logger.Info().Msg("chain disabled, skipping node binary check")
		return nil
	}

	if _, err := exec.LookPath(p.opts.NodeBinary); err != nil {
		return fmt.Errorf("%w: %s (install it or rerun with -skip-chain)", ErrMissingTool, p.opts.NodeBinary)
	}
	return nil
}

func (p *Provisioner) prepareWorkspace(context.Context) error {
	for _, dir := range []string{
		filepath.Join(p.opts.workspace(), "data"),
		filepath.Join(p.opts.workspace(), "logs"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

func (p *Provisioner) checkPostgres(ctx context.Context) error {
	adminURL, err := adminDatabaseURL(p.cfg.Storage.DatabaseURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.probeTimeout())
	defer cancel()

	db, err := sql.Open("pgx", adminURL)
	if err != nil {
		return fmt.Errorf("opening admin connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("PostgreSQL is not reachable: %w", err)
	}
	return nil
}

// provisionDatabases creates the application role and databases. Reruns are
// expected, so duplicate-object errors from PostgreSQL are tolerated.
func (p *Provisioner) provisionDatabases(ctx context.Context) error {
	target, err := url.Parse(p.cfg.Storage.DatabaseURL)
	if err != nil {
		return fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	role := target.User.Username()
	password, _ := target.User.Password()
	dbName := strings.TrimPrefix(target.Path, "/")
	if role == "" || dbName == "" {
		return fmt.Errorf("DATABASE_URL must carry a user and a database name, got %q", p.cfg.Storage.DatabaseURL)
	}

	adminURL, err := adminDatabaseURL(p.cfg.Storage.DatabaseURL)
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", adminURL)
	if err != nil {
		return fmt.Errorf("opening admin connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	createRole := fmt.Sprintf(
		"CREATE ROLE %s WITH LOGIN PASSWORD '%s'",
		pgx.Identifier{role}.Sanitize(),
		strings.ReplaceAll(password, "'", "''"),
	)
	if err := execTolerateDuplicate(ctx, db, createRole); err != nil {
		return fmt.Errorf("creating role %s: %w", role, err)
	}

	databases := []string{dbName}
	if testName := databaseName(p.cfg.Storage.TestDatabaseURL); testName != "" && testName != dbName {
		databases = append(databases, testName)
	}

	for _, name := range databases {
		createDB := fmt.Sprintf(
			"CREATE DATABASE %s OWNER %s",
			pgx.Identifier{name}.Sanitize(),
			pgx.Identifier{role}.Sanitize(),
		)
		if err := execTolerateDuplicate(ctx, db, createDB); err != nil {
			return fmt.Errorf("creating database %s: %w", name, err)
		}
		p.logger.Info().Str("database", name).Str("owner", role).Msg("database ready")
	}

	return nil
}

func (p *Provisioner) checkRedis(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.probeTimeout())
	defer cancel()

	cache, err := store.NewCache(ctx, p.cfg.Storage.RedisURL, p.logger)
	if err != nil {
		return fmt.Errorf("redis is not reachable: %w", err)
	}
	return cache.Close()
}

func (p *Provisioner) startNode(context.Context) error {
	if p.opts.SkipChain {
		p.logger.Info().Msg("chain disabled, not starting the dev node")
		return nil
	}

	logPath := filepath.Join(p.opts.workspace(), "logs", "chain-node.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening node log %s: %w", logPath, err)
	}

	node := chain.NewNode(p.opts.NodeBinary, p.opts.NodeArgs, p.logger)
	node.Stdout = logFile
	node.Stderr = logFile

	if err := node.Start(); err != nil {
		_ = logFile.Close()
		return err
	}

	p.node = node
	p.nodeLog = logFile
	p.logger.Info().Int("pid", node.PID()).Str("log", logPath).Msg("dev node up")
	return nil
}

func (p *Provisioner) applyMigrations(context.Context) error {
	db, err := sql.Open("pgx", p.cfg.Storage.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	return migrations.Migrate(db)
}

// diagnose is the post-provisioning sanity pass: the database answers a
// query, Redis answers a ping, the chain node answers an RPC call, and the
// configured provider credentials are reported.
func (p *Provisioner) diagnose(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.probeTimeout())
	defer cancel()

	db, err := sql.Open("pgx", p.cfg.Storage.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}

	cache, err := store.NewCache(ctx, p.cfg.Storage.RedisURL, p.logger)
	if err != nil {
		return fmt.Errorf("redis check failed: %w", err)
	}
	_ = cache.Close()

	if !p.opts.SkipChain {
		rpc := chain.NewRPCClient(p.cfg.Chain.ProviderURL, p.opts.probeTimeout(), p.logger)
		block, err := rpc.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("chain RPC check failed: %w", err)
		}
		p.logger.Info().Uint64("block", block).Msg("chain node answers")
	}

	for name, key := range map[string]string{
		"openai":     p.cfg.Providers.OpenAIKey,
		"anthropic":  p.cfg.Providers.AnthropicKey,
		"stability":  p.cfg.Providers.StabilityKey,
		"elevenlabs": p.cfg.Providers.ElevenLabsKey,
	} {
		p.logger.Info().
			Str("provider", name).
			Bool("configured", key != "").
			Msg("provider credential")
	}

	return nil
}

func (p *Provisioner) cleanup(ctx context.Context) error {
	p.StopNode(ctx)
	return nil
}

// adminDatabaseURL rewrites a database URL to point at the maintenance
// database, keeping host and credentials.
func adminDatabaseURL(databaseURL string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing DATABASE_URL: %w", err)
	}
	u.Path = "/postgres"
	return u.String(), nil
}

func databaseName(databaseURL string) string {
	if databaseURL == "" {
		return ""
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

func execTolerateDuplicate(ctx context.Context, db *sql.DB, query string) error {
	_, err := db.ExecContext(ctx, query)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.DuplicateObject, pgerrcode.DuplicateDatabase:
			return nil
		}
	}
	return err
}
