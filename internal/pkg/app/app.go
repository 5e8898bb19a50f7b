// Package app wires configuration into the storefront components shared by
// the CLI and the Lambda handler.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andrey-berenda/storefront/internal/pkg/backend"
	"github.com/andrey-berenda/storefront/internal/pkg/checkout"
	"github.com/andrey-berenda/storefront/internal/pkg/config"
	"github.com/andrey-berenda/storefront/internal/pkg/guard"
	"github.com/andrey-berenda/storefront/internal/pkg/models"
	"github.com/andrey-berenda/storefront/internal/pkg/notify"
	"github.com/andrey-berenda/storefront/internal/pkg/poller"
	"github.com/andrey-berenda/storefront/internal/pkg/storage"
	"github.com/andrey-berenda/storefront/internal/pkg/storefront"
)

type PaymentStore interface {
	checkout.PaymentStore
	PaymentGet(ctx context.Context, requestID string) (*models.PaymentRecord, error)
	PaymentsPending(ctx context.Context) ([]models.PaymentRecord, error)
}

var (
	ErrUnknownProduct = errors.New("unknown product")
	ErrNoItems        = errors.New("no items to buy")
)

type App struct {
	Config   *config.Config
	Logger   *zap.SugaredLogger
	Backend  *backend.Client
	Poller   *poller.Poller
	Store    PaymentStore
	Checkout *checkout.Service

	closers []func()
}

func New(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Validate: %w", err)
	}
	a := &App{Config: cfg, Logger: logger}

	a.Backend = backend.New(
		&http.Client{Timeout: cfg.Backend.RequestTimeout},
		cfg.Backend.BaseURL,
		cfg.Backend.APIKey,
		cfg.Backend.RequestTimeout,
	)

	var g poller.Guard = guard.NewMemory()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("rdb.Ping: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		g = guard.NewRedis(rdb, cfg.LeaseTTL())
	}

	a.Poller = poller.New(a.Backend, logger, poller.Options{
		Interval:    cfg.Polling.Interval,
		MaxAttempts: cfg.Polling.MaxAttempts,
		Guard:       g,
	})

	if cfg.Database.URL != "" {
		store, err := storage.New(ctx, cfg.Database.URL, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("storage.New: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err = store.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("store.Migrate: %w", err)
		}
		a.Store = store
	} else {
		a.Store = storage.NewMemory()
	}

	var observers []poller.Handler
	if cfg.Telegram.Token != "" {
		n, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("notify.NewTelegram: %w", err)
		}
		observers = append(observers, n)
	}

	a.Checkout = checkout.New(a.Backend, a.Poller, a.Store, logger, observers...)
	return a, nil
}

// SignIn logs the shopper in and returns a fresh session for them.
func (a *App) SignIn(ctx context.Context, phone, password string) (*storefront.Session, error) {
	u, err := a.Backend.Login(ctx, phone, password)
	if err != nil {
		return nil, fmt.Errorf("backend.Login: %w", err)
	}
	if u.Phone == "" {
		u.Phone = phone
	}
	s := storefront.NewSession()
	s.SignIn(u)
	return s, nil
}

// Catalog fetches the current product list.
func (a *App) Catalog(ctx context.Context) (*storefront.Catalog, error) {
	products, err := a.Backend.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("backend.Products: %w", err)
	}
	return storefront.NewCatalog(products), nil
}

// FillCart adds each productID→quantity pair to the session cart.
func FillCart(sess *storefront.Session, catalog *storefront.Catalog, items []Item) error {
	for _, it := range items {
		p, ok := catalog.Get(it.ProductID)
		if !ok {
			return fmt.Errorf("%q: %w", it.ProductID, ErrUnknownProduct)
		}
		if err := sess.Cart.Add(p, it.Quantity); err != nil {
			return fmt.Errorf("cart.Add(%s): %w", it.ProductID, err)
		}
	}
	return nil
}

type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ParseItems reads "product=qty" pairs; a bare product id means one unit.
func ParseItems(raw []string) ([]Item, error) {
	if len(raw) == 0 {
		return nil, ErrNoItems
	}
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		id, qty, found := strings.Cut(r, "=")
		n := 1
		if found {
			var err error
			if n, err = strconv.Atoi(qty); err != nil || n < 1 {
				return nil, fmt.Errorf("invalid quantity in %q", r)
			}
		}
		if id == "" {
			return nil, fmt.Errorf("invalid item %q", r)
		}
		items = append(items, Item{ProductID: id, Quantity: n})
	}
	return items, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
