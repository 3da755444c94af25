package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/models"
)

// Minimum spacing between consecutive calls to the same provider.
// ElevenLabs throttles harder than the rest.
const (
	defaultCallSpacing    = 100 * time.Millisecond
	elevenLabsCallSpacing = 200 * time.Millisecond
)

// Aggregator routes generation requests across the registered providers.
// Routing is round-robin over the providers supporting the service type,
// with failover to the next candidate when a call errors.
type Aggregator struct {
	clients []Client
	logger  *logger.Logger

	mu       sync.Mutex
	rrIndex  map[models.ServiceType]int
	lastCall map[string]time.Time
}

// NewAggregator constructs an [Aggregator] over the given clients.
func NewAggregator(clients []Client, log *logger.Logger) *Aggregator {
	return &Aggregator{
		clients:  clients,
		logger:   log,
		rrIndex:  make(map[models.ServiceType]int),
		lastCall: make(map[string]time.Time),
	}
}

// NewAggregatorFromConfig registers one client per configured credential.
// Providers without an API key are not registered. When no credential is
// configured at all, the local sim provider backs every service type so
// development installs work without upstream accounts.
func NewAggregatorFromConfig(cfg config.Providers, timeout time.Duration, log *logger.Logger) *Aggregator {
	var clients []Client

	if cfg.OpenAIKey != "" {
		clients = append(clients, NewOpenAIClient(cfg.OpenAIKey, timeout, log))
	}
	if cfg.AnthropicKey != "" {
		clients = append(clients, NewAnthropicClient(cfg.AnthropicKey, timeout, log))
	}
	if cfg.StabilityKey != "" {
		clients = append(clients, NewStabilityClient(cfg.StabilityKey, timeout, log))
	}
	if cfg.ElevenLabsKey != "" {
		clients = append(clients, NewElevenLabsClient(cfg.ElevenLabsKey, timeout, log))
	}

	if len(clients) == 0 {
		log.Warn().Msg("no provider API keys configured, falling back to the sim provider")
		clients = append(clients, NewSimClient())
	}

	log.Info().Int("providers", len(clients)).Msg("provider aggregator initialized")
	return NewAggregator(clients, log)
}

// Generate implements [Runner]. Candidates are tried starting at the
// round-robin position; the first success wins. Context cancellation stops
// the failover loop.
func (a *Aggregator) Generate(ctx context.Context, req Request) (Result, error) {
	candidates := a.candidatesFor(req.Type)
	if len(candidates) == 0 {
		return Result{}, fmt.Errorf("%w: %q", ErrNoProvider, req.Type)
	}

	start := a.nextIndex(req.Type, len(candidates))

	var lastErr error
	for i := 0; i < len(candidates); i++ {
		client := candidates[(start+i)%len(candidates)]

		if err := a.waitSpacing(ctx, client.Name()); err != nil {
			return Result{}, err
		}

		result, err := client.Generate(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}

		a.logger.Warn().
			Err(err).
			Str("provider", client.Name()).
			Str("type", string(req.Type)).
			Msg("provider call failed, trying next candidate")
	}

	return Result{}, fmt.Errorf("%w: %q: %w", ErrNoProvider, req.Type, lastErr)
}

// Status probes every registered provider and returns the per-provider
// outcome. A nil map value means the provider is reachable.
func (a *Aggregator) Status(ctx context.Context) map[string]error {
	statuses := make(map[string]error, len(a.clients))
	for _, client := range a.clients {
		statuses[client.Name()] = client.Status(ctx)
	}
	return statuses
}

// Names lists the registered providers.
func (a *Aggregator) Names() []string {
	names := make([]string, 0, len(a.clients))
	for _, client := range a.clients {
		names = append(names, client.Name())
	}
	return names
}

func (a *Aggregator) candidatesFor(t models.ServiceType) []Client {
	candidates := make([]Client, 0, len(a.clients))
	for _, client := range a.clients {
		if client.Supports(t) {
			candidates = append(candidates, client)
		}
	}
	return candidates
}

func (a *Aggregator) nextIndex(t models.ServiceType, n int) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	index := a.rrIndex[t] % n
	a.rrIndex[t]++
	return index
}

// waitSpacing enforces the per-provider minimum spacing, honoring context
// cancellation while waiting.
func (a *Aggregator) waitSpacing(ctx context.Context, name string) error {
	a.mu.Lock()
	spacing := defaultCallSpacing
	if name == "elevenlabs" {
		spacing = elevenLabsCallSpacing
	}

	wait := spacing - time.Since(a.lastCall[name])
	a.lastCall[name] = time.Now().Add(max(wait, 0))
	a.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
