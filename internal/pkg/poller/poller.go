package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andrey-berenda/storefront/internal/pkg/backend"
	"github.com/andrey-berenda/storefront/internal/pkg/guard"
	"github.com/andrey-berenda/storefront/internal/pkg/log"
	"github.com/andrey-berenda/storefront/internal/pkg/models"
)

const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 30
)

var ErrAlreadyPolling = errors.New("a payment poll is already active for this session")

type StatusQuerier interface {
	PaymentStatus(ctx context.Context, requestID string) (backend.StatusResponse, error)
}

// Guard holds at most one lease per key. The token identifies the holder so
// an expired holder cannot release a lease that has since changed hands.
type Guard interface {
	Acquire(ctx context.Context, key, token string) (bool, error)
	Release(ctx context.Context, key, token string) error
}

// Outcome is what a terminal callback receives. Response is the payload of
// the query that ended the poll and is empty on timeout.
type Outcome struct {
	RequestID string
	Status    models.PaymentStatus
	Attempts  int
	Response  backend.StatusResponse
}

// Handler receives exactly one of its callbacks per poll, unless the poll is
// stopped by its owner first.
type Handler interface {
	OnSuccess(Outcome)
	OnFailure(Outcome)
	OnTimeout(Outcome)
}

// HandlerFuncs adapts plain functions to Handler. Nil funcs are skipped.
type HandlerFuncs struct {
	Success func(Outcome)
	Failure func(Outcome)
	Timeout func(Outcome)
}

func (h HandlerFuncs) OnSuccess(o Outcome) {
	if h.Success != nil {
		h.Success(o)
	}
}

func (h HandlerFuncs) OnFailure(o Outcome) {
	if h.Failure != nil {
		h.Failure(o)
	}
}

func (h HandlerFuncs) OnTimeout(o Outcome) {
	if h.Timeout != nil {
		h.Timeout(o)
	}
}

type Options struct {
	Interval    time.Duration
	MaxAttempts int
	Clock       Clock
	Guard       Guard
}

type Poller struct {
	querier     StatusQuerier
	clock       Clock
	guard       Guard
	interval    time.Duration
	maxAttempts int
	logger      *zap.SugaredLogger
}

func New(querier StatusQuerier, logger *zap.SugaredLogger, opts Options) *Poller {
	p := &Poller{
		querier:     querier,
		clock:       opts.Clock,
		guard:       opts.Guard,
		interval:    opts.Interval,
		maxAttempts: opts.MaxAttempts,
		logger:      logger,
	}
	if p.clock == nil {
		p.clock = realClock{}
	}
	if p.guard == nil {
		p.guard = guard.NewMemory()
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.maxAttempts <= 0 {
		p.maxAttempts = DefaultMaxAttempts
	}
	if p.logger == nil {
		p.logger = log.NewNop()
	}
	return p
}

// Start begins polling requestID on behalf of the checkout session sessionKey.
// The first query is issued immediately, then one per interval.
func (p *Poller) Start(ctx context.Context, sessionKey, requestID string, h Handler) (*Session, error) {
	r, err := p.Reserve(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	return r.Start(ctx, requestID, h), nil
}

// Reserve claims sessionKey before the payment exists, so a second checkout
// is refused before it can send another STK push. The reservation must be
// either started or released.
func (p *Poller) Reserve(ctx context.Context, sessionKey string) (*Reservation, error) {
	token := uuid.NewString()
	ok, err := p.guard.Acquire(ctx, sessionKey, token)
	if err != nil {
		return nil, fmt.Errorf("guard.Acquire: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyPolling
	}
	return &Reservation{poller: p, sessionKey: sessionKey, token: token}, nil
}

type Reservation struct {
	poller     *Poller
	sessionKey string
	token      string
}

func (r *Reservation) Start(ctx context.Context, requestID string, h Handler) *Session {
	p := r.poller
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		poller:     p,
		sessionKey: r.sessionKey,
		token:      r.token,
		handler:    h,
		cancel:     cancel,
		done:       make(chan struct{}),
		ticker:     p.clock.NewTicker(p.interval),
		logger:     p.logger.With(log.RequestID(requestID), log.SessionID(r.sessionKey)),
		state: State{
			RequestID:   requestID,
			MaxAttempts: p.maxAttempts,
			Interval:    p.interval,
			Status:      models.PaymentStatusPending,
		},
	}
	go s.run(ctx)
	return s
}

func (r *Reservation) Release(ctx context.Context) error {
	return r.poller.guard.Release(ctx, r.sessionKey, r.token)
}
