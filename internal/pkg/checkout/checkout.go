package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andrey-berenda/storefront/internal/pkg/backend"
	"github.com/andrey-berenda/storefront/internal/pkg/models"
	"github.com/andrey-berenda/storefront/internal/pkg/poller"
	"github.com/andrey-berenda/storefront/internal/pkg/storage"
	"github.com/andrey-berenda/storefront/internal/pkg/storefront"
)

var ErrStopped = errors.New("checkout stopped before the payment was confirmed")

type Backend interface {
	Quote(ctx context.Context, items []models.CartLine) (backend.Quote, error)
	Checkout(ctx context.Context, req backend.CheckoutRequest) (backend.CheckoutResponse, error)
}

type PaymentStore interface {
	PaymentCreate(ctx context.Context, p models.PaymentRequest) error
	PaymentSetOutcome(ctx context.Context, requestID string, o storage.Outcome) error
}

type Service struct {
	backend   Backend
	poller    *poller.Poller
	store     PaymentStore
	observers []poller.Handler
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// New wires a checkout service. Observers (e.g. the operator notifier) see
// every terminal outcome.
func New(
	b Backend,
	p *poller.Poller,
	store PaymentStore,
	logger *zap.SugaredLogger,
	observers ...poller.Handler,
) *Service {
	return &Service{
		backend:   b,
		poller:    p,
		store:     store,
		observers: observers,
		logger:    logger,
		now:       time.Now,
	}
}

// Checkout is one initiated STK push and its confirmation poll.
type Checkout struct {
	Request models.PaymentRequest

	session *poller.Session
	cart    *storefront.Cart

	// result is written once, before ready is closed.
	result Result
	ready  chan struct{}
}

// Start validates the session, initiates the STK push and begins polling.
// Failures before the push is accepted are returned; everything after that
// is reported through Wait and h.
func (s *Service) Start(ctx context.Context, sess *storefront.Session, h poller.Handler) (*Checkout, error) {
	if !sess.SignedIn() {
		return nil, storefront.ErrNotLoggedIn
	}
	if sess.Cart.Len() == 0 {
		return nil, storefront.ErrEmptyCart
	}
	phone, err := storefront.NormalizePhone(sess.User.Phone)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", sess.User.Phone, err)
	}

	lease, err := s.poller.Reserve(ctx, sess.ID.String())
	if err != nil {
		return nil, fmt.Errorf("poller.Reserve: %w", err)
	}
	c, err := s.initiate(ctx, sess, phone)
	if err != nil {
		if rerr := lease.Release(context.Background()); rerr != nil {
			s.logger.Errorf("lease.Release: %v", rerr)
		}
		return nil, err
	}

	handlers := append([]poller.Handler{&recorder{service: s, checkout: c}}, s.observers...)
	if h != nil {
		handlers = append(handlers, h)
	}
	c.session = lease.Start(ctx, c.Request.RequestID, fanout(handlers))
	s.logger.Infof("checkout %s started for %d KES", c.Request.RequestID, c.Request.Amount)
	return c, nil
}

func (s *Service) initiate(ctx context.Context, sess *storefront.Session, phone string) (*Checkout, error) {
	items := sess.Cart.Snapshot()
	quote, err := s.backend.Quote(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("backend.Quote: %w", err)
	}
	if quote.Total <= 0 {
		return nil, fmt.Errorf("backend.Quote: non-positive total %d", quote.Total)
	}

	resp, err := s.backend.Checkout(ctx, backend.CheckoutRequest{
		UserID:      sess.User.ID,
		PhoneNumber: phone,
		Amount:      quote.Total,
		CartItems:   items,
		Timestamp:   s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("backend.Checkout: %w", err)
	}

	req := models.PaymentRequest{
		RequestID:    resp.CheckoutRequestID,
		UserID:       sess.User.ID,
		Phone:        phone,
		Amount:       quote.Total,
		CartSnapshot: items,
	}
	if err = s.store.PaymentCreate(ctx, req); err != nil {
		// The STK push is already out; keep polling without the audit row.
		s.logger.Errorf("store.PaymentCreate(%s): %v", req.RequestID, err)
	}
	return &Checkout{
		Request: req,
		cart:    &sess.Cart,
		ready:   make(chan struct{}),
	}, nil
}

// Wait blocks until the payment reaches a terminal status and may be called
// any number of times. By then a paid cart has already been cleared.
func (c *Checkout) Wait(ctx context.Context) (Result, error) {
	select {
	case <-c.ready:
		return c.result, nil
	case <-c.session.Done():
		select {
		case <-c.ready:
			return c.result, nil
		default:
			return Result{RequestID: c.Request.RequestID, Status: models.PaymentStatusPending}, ErrStopped
		}
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Cancel stops polling, e.g. when the shopper leaves the checkout.
func (c *Checkout) Cancel() {
	c.session.Stop()
}

func (c *Checkout) State() poller.State {
	return c.session.State()
}

type recorder struct {
	service  *Service
	checkout *Checkout
}

func (r *recorder) OnSuccess(o poller.Outcome) { r.record(o) }
func (r *recorder) OnFailure(o poller.Outcome) { r.record(o) }
func (r *recorder) OnTimeout(o poller.Outcome) { r.record(o) }

// record runs before any other handler, so observers and the caller see a
// cleared cart on success.
func (r *recorder) record(o poller.Outcome) {
	if o.Status == models.PaymentStatusSuccess {
		r.checkout.cart.Clear()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := r.service.store.PaymentSetOutcome(ctx, o.RequestID, storage.Outcome{
		Status:            o.Status,
		Attempts:          o.Attempts,
		OrderID:           o.Response.OrderID,
		MerchantRequestID: o.Response.MerchantRequestID,
	})
	if err != nil {
		r.service.logger.Errorf("store.PaymentSetOutcome(%s): %v", o.RequestID, err)
	}
	r.checkout.result = resultFrom(o)
	close(r.checkout.ready)
}

type fanout []poller.Handler

func (f fanout) OnSuccess(o poller.Outcome) {
	for _, h := range f {
		h.OnSuccess(o)
	}
}

func (f fanout) OnFailure(o poller.Outcome) {
	for _, h := range f {
		h.OnFailure(o)
	}
}

func (f fanout) OnTimeout(o poller.Outcome) {
	for _, h := range f {
		h.OnTimeout(o)
	}
}
