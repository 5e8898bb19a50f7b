package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andrey-berenda/storefront/internal/pkg/models"
)

// State is the poll state of one checkout request. AttemptsMade never
// exceeds MaxAttempts and Status only ever leaves PENDING once.
type State struct {
	RequestID    string
	AttemptsMade int
	MaxAttempts  int
	Interval     time.Duration
	Status       models.PaymentStatus
}

type Session struct {
	poller     *Poller
	sessionKey string
	token      string
	handler    Handler
	cancel     context.CancelFunc
	done       chan struct{}
	ticker     Ticker
	logger     *zap.SugaredLogger

	// lastDone is when the latest query returned; ticks older than it fired
	// while that query was in flight.
	lastDone time.Time

	mu      sync.Mutex
	state   State
	stopped bool
}

// Stop halts the schedule. No callback fires for a stopped poll.
func (s *Session) Stop() {
	s.cancel()
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stopped reports whether the poll ended through Stop or context
// cancellation rather than a terminal status.
func (s *Session) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.release()
	defer s.ticker.Stop()
	defer s.cancel()

	if s.attempt(ctx) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			s.markStopped()
			return
		case t := <-s.ticker.C():
			if ctx.Err() != nil {
				s.markStopped()
				return
			}
			if t.Before(s.lastDone) {
				s.logger.Debugf("skipping tick at %s: previous query still in flight", t)
				continue
			}
			if s.state.AttemptsMade >= s.state.MaxAttempts {
				s.finish(Outcome{Status: models.PaymentStatusTimeout})
				return
			}
			if s.attempt(ctx) {
				return
			}
		}
	}
}

// attempt issues one status query and reports whether polling is over.
func (s *Session) attempt(ctx context.Context) bool {
	s.mu.Lock()
	s.state.AttemptsMade++
	n := s.state.AttemptsMade
	requestID := s.state.RequestID
	s.mu.Unlock()

	resp, err := s.poller.querier.PaymentStatus(ctx, requestID)
	s.lastDone = s.poller.clock.Now()

	if ctx.Err() != nil {
		s.logger.Debugf("discarding result of attempt %d: poll stopped", n)
		s.markStopped()
		return true
	}
	if err != nil {
		s.logger.Warnf("poller.PaymentStatus attempt %d/%d: %v", n, s.state.MaxAttempts, err)
		return false
	}

	status := resp.PaymentStatus()
	if !status.Terminal() {
		s.logger.Debugf("attempt %d/%d: status %q", n, s.state.MaxAttempts, resp.Status)
		return false
	}
	s.finish(Outcome{Status: status, Response: resp})
	return true
}

func (s *Session) finish(o Outcome) {
	s.mu.Lock()
	s.state.Status = o.Status
	o.RequestID = s.state.RequestID
	o.Attempts = s.state.AttemptsMade
	s.mu.Unlock()

	s.logger.Infof("payment poll finished with %s after %d attempts", o.Status, o.Attempts)

	if s.handler == nil {
		return
	}
	switch o.Status {
	case models.PaymentStatusSuccess:
		s.handler.OnSuccess(o)
	case models.PaymentStatusTimeout:
		s.handler.OnTimeout(o)
	default:
		s.handler.OnFailure(o)
	}
}

func (s *Session) markStopped() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.logger.Info("payment poll stopped by owner")
}

func (s *Session) release() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.poller.guard.Release(ctx, s.sessionKey, s.token); err != nil {
		s.logger.Errorf("guard.Release: %v", err)
	}
}
