package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
)

// ListingExpirer retires active listings whose expiry passed.
type ListingExpirer interface {
	ExpireListings(ctx context.Context, now time.Time) (int64, error)
}

// SessionPruner deletes refresh sessions that expired before the given time.
type SessionPruner interface {
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper periodically retires expired listings and prunes dead refresh
// sessions. One sweep failure is logged and retried on the next tick.
type Sweeper struct {
	listings ListingExpirer
	sessions SessionPruner
	interval time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates an idle sweeper. A non-positive interval defaults to
// one minute.
func NewSweeper(listings ListingExpirer, sessions SessionPruner, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{listings: listings, sessions: sessions, interval: interval, logger: log}
}

// Start launches the sweep loop. It stops any previously running loop first.
func (s *Sweeper) Start(ctx context.Context) {
	s.Stop()

	s.mu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info().Dur("interval", s.interval).Msg("sweeper started")

	go func() {
		defer s.wg.Done()
		t := time.NewTicker(s.interval)
		defer t.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-t.C:
				s.sweep(loopCtx)
			}
		}
	}()
}

// Stop cancels the loop and blocks until it has exited. Safe to call when
// the sweeper is not running.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now()

	if s.listings != nil {
		expired, err := s.listings.ExpireListings(ctx, now)
		if err != nil {
			s.logger.Err(err).Msg("expiring listings failed")
		} else if expired > 0 {
			s.logger.Info().Int64("expired", expired).Msg("listings expired")
		}
	}

	if s.sessions != nil {
		pruned, err := s.sessions.DeleteExpiredSessions(ctx, now)
		if err != nil {
			s.logger.Err(err).Msg("pruning sessions failed")
		} else if pruned > 0 {
			s.logger.Debug().Int64("pruned", pruned).Msg("expired sessions deleted")
		}
	}
}
