package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/devstack"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/tui"
)

func main() {
	// Registered before config.GetConfig, which parses the shared flag set.
	interactive := flag.Bool("interactive", false, "Render progress as a terminal UI")
	skipChain := flag.Bool("skip-chain", false, "Skip the dev chain node and its checks")
	nodeBinary := flag.String("node-binary", "anvil", "Dev chain node executable")
	workspace := flag.String("workspace", ".devstack", "Directory for node data and logs")

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "devstack: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger("devstack", cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	opts := devstack.Options{
		NodeBinary: *nodeBinary,
		SkipChain:  *skipChain,
		Workspace:  *workspace,
	}

	if *interactive && tui.Interactive() {
		os.Exit(runInteractive(ctx, cfg, opts))
	}

	provisioner := devstack.NewProvisioner(cfg, opts, log)
	if err := provisioner.Run(ctx, nil); err != nil {
		log.Err(err).Msg("provisioning failed")
		os.Exit(1)
	}

	log.Info().Msg("development environment is ready")
}

// runInteractive drives the provisioner behind the bubbletea progress view.
// The runner logs are muted so the view owns the terminal.
func runInteractive(ctx context.Context, cfg *config.Config, opts devstack.Options) int {
	provisioner := devstack.NewProvisioner(cfg, opts, logger.Nop())

	events := make(chan devstack.Event, 16)
	runErr := make(chan error, 1)
	go func() {
		runErr <- provisioner.Run(ctx, events)
		close(events)
	}()

	viewErr := tui.RunProgress("AI Agent Platform devstack", provisioner.StepNames(), events)
	if errors.Is(viewErr, tui.ErrUserQuit) {
		fmt.Fprintln(os.Stderr, "devstack: aborted")
		return 1
	}
	if viewErr != nil {
		fmt.Fprintf(os.Stderr, "devstack: %v\n", viewErr)
		return 1
	}

	if err := <-runErr; err != nil {
		fmt.Fprintf(os.Stderr, "devstack: %v\n", err)
		return 1
	}

	fmt.Println("development environment is ready")
	return 0
}
