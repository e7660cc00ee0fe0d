package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/basket/internal/cartapi"
	"github.com/five82/basket/internal/notify"
	"github.com/five82/basket/internal/state"
)

// Errors returned by mutations that never reach the network.
var (
	ErrBusy            = errors.New("cart update already in progress")
	ErrEmptyCoupon     = errors.New("coupon code is empty")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	errAborted         = errors.New("cart update aborted")
)

// User-facing messages.
const (
	msgEmptyCoupon     = "Please enter a coupon code"
	msgInvalidQuantity = "Quantity must be at least 1"
	msgLoadProducts    = "Failed to load products"
	msgLoadCart        = "Failed to load cart"
)

// Controller is the only writer of the cart snapshot. It runs at most one
// mutation at a time and installs every successful response wholesale.
type Controller struct {
	service cartapi.Service
	store   *state.Store
	notices *notify.Channel
	log     zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New builds a Controller. store and notices are shared with the UI.
func New(service cartapi.Service, store *state.Store, notices *notify.Channel, opts ...Option) *Controller {
	c := &Controller{
		service: service,
		store:   store,
		notices: notices,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current application state.
func (c *Controller) State() state.State {
	return c.store.Snapshot()
}

// Load runs the catalog and cart loaders concurrently and waits for both.
// Failures are reported through the notification channel; they never stop
// the other loader.
func (c *Controller) Load(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.LoadCatalog(ctx)
	}()
	go func() {
		defer wg.Done()
		c.LoadCart(ctx)
	}()
	wg.Wait()
}

// LoadCatalog fetches the product list once.
func (c *Controller) LoadCatalog(ctx context.Context) {
	started := time.Now()
	products, err := c.service.FetchProducts(ctx)
	_, _ = c.store.Dispatch(state.CatalogLoaded{Products: products, Err: err})
	if err != nil {
		c.log.Error().Err(err).Dur("duration", time.Since(started)).Msg("catalog load failed")
		c.notices.Error(failureMessage(err, msgLoadProducts))
		return
	}
	c.log.Info().Int("products", len(products)).Dur("duration", time.Since(started)).Msg("catalog loaded")
}

// LoadCart fetches the cart snapshot once.
func (c *Controller) LoadCart(ctx context.Context) {
	started := time.Now()
	snapshot, err := c.service.FetchCart(ctx)
	ev := state.CartLoaded{Err: err}
	if err == nil {
		ev.Cart = &snapshot
	}
	_, _ = c.store.Dispatch(ev)
	if err != nil {
		c.log.Error().Err(err).Dur("duration", time.Since(started)).Msg("cart load failed")
		c.notices.Error(failureMessage(err, msgLoadCart))
		return
	}
	c.log.Info().Int("items", len(snapshot.Items)).Dur("duration", time.Since(started)).Msg("cart loaded")
}

// AddItem adds qty units of productID.
func (c *Controller) AddItem(ctx context.Context, productID int64, qty int) error {
	if qty < 1 {
		c.notices.Error(msgInvalidQuantity)
		return ErrInvalidQuantity
	}
	return c.mutate(ctx, mutation{
		op:        state.OpAddItem,
		productID: productID,
		fallback:  "Failed to add item",
		success:   "Item added to cart",
		call: func(ctx context.Context) (cartapi.Cart, error) {
			return c.service.AddItem(ctx, productID, qty)
		},
	})
}

// SetQuantity sets the quantity of productID's line. The value is sent as
// given; whether zero or negative quantities are allowed is up to the server.
func (c *Controller) SetQuantity(ctx context.Context, productID int64, qty int) error {
	return c.mutate(ctx, mutation{
		op:        state.OpUpdateQuantity,
		productID: productID,
		fallback:  "Failed to update quantity",
		success:   "Quantity updated",
		call: func(ctx context.Context) (cartapi.Cart, error) {
			return c.service.UpdateQuantity(ctx, productID, qty)
		},
	})
}

// RemoveItem drops productID's line.
func (c *Controller) RemoveItem(ctx context.Context, productID int64) error {
	return c.mutate(ctx, mutation{
		op:        state.OpRemoveItem,
		productID: productID,
		fallback:  "Failed to remove item",
		success:   "Item removed from cart",
		call: func(ctx context.Context) (cartapi.Cart, error) {
			return c.service.RemoveItem(ctx, productID)
		},
	})
}

// ApplyCoupon submits code after trimming and upper-casing it.
func (c *Controller) ApplyCoupon(ctx context.Context, code string) error {
	normalized := NormalizeCoupon(code)
	if normalized == "" {
		c.notices.Error(msgEmptyCoupon)
		return ErrEmptyCoupon
	}
	return c.mutate(ctx, mutation{
		op:       state.OpApplyCoupon,
		coupon:   normalized,
		fallback: "Failed to apply coupon",
		success:  fmt.Sprintf("Coupon %s applied", normalized),
		call: func(ctx context.Context) (cartapi.Cart, error) {
			return c.service.ApplyCoupon(ctx, normalized)
		},
	})
}

// RemoveCoupon clears the manual coupon.
func (c *Controller) RemoveCoupon(ctx context.Context) error {
	return c.mutate(ctx, mutation{
		op:       state.OpRemoveCoupon,
		fallback: "Failed to remove coupon",
		success:  "Coupon removed",
		call: func(ctx context.Context) (cartapi.Cart, error) {
			return c.service.RemoveCoupon(ctx)
		},
	})
}

// NormalizeCoupon trims code and upper-cases it.
func NormalizeCoupon(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type mutation struct {
	op        state.Op
	productID int64
	coupon    string
	fallback  string
	success   string
	call      func(ctx context.Context) (cartapi.Cart, error)
}

// mutate takes the in-flight flag, issues exactly one request and releases
// the flag on every exit path.
func (c *Controller) mutate(ctx context.Context, m mutation) (err error) {
	if _, startErr := c.store.Dispatch(state.MutationStarted{Op: m.op}); startErr != nil {
		if errors.Is(startErr, state.ErrMutationInFlight) {
			c.log.Debug().Stringer("op", m.op).Msg("mutation dropped, another is in flight")
			return ErrBusy
		}
		return startErr
	}

	started := time.Now()
	var result *cartapi.Cart
	callErr := errAborted
	defer func() {
		_, _ = c.store.Dispatch(state.MutationSettled{Op: m.op, Cart: result, Err: callErr})

		event := c.log.Info()
		if callErr != nil {
			event = c.log.Warn().Err(callErr)
		}
		event = event.Stringer("op", m.op).Dur("duration", time.Since(started))
		if m.productID != 0 {
			event = event.Int64("product_id", m.productID)
		}
		if m.coupon != "" {
			event = event.Str("coupon", m.coupon)
		}
		event.Msg("cart mutation settled")

		if callErr != nil {
			c.notices.Error(failureMessage(callErr, m.fallback))
			err = callErr
			return
		}
		c.notices.Success(m.success)
	}()

	snapshot, reqErr := m.call(ctx)
	if reqErr != nil {
		callErr = fmt.Errorf("%s: %w", m.op, reqErr)
		return callErr
	}
	result = &snapshot
	callErr = nil
	return nil
}

func failureMessage(err error, fallback string) string {
	if msg, ok := cartapi.ServerMessage(err); ok {
		return msg
	}
	return fallback
}
