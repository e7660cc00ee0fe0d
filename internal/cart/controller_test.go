package cart

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/basket/internal/cartapi"
	"github.com/five82/basket/internal/notify"
	"github.com/five82/basket/internal/state"
)

// stubService is a scriptable cartapi.Service.
type stubService struct {
	mu         sync.Mutex
	products   []cartapi.Product
	productErr error
	cart       cartapi.Cart
	cartErr    error

	// mutateErr fails every mutation when set.
	mutateErr error
	// gate, when set, blocks every mutation until it is closed.
	gate chan struct{}
	// started is signalled when a mutation begins.
	started chan struct{}
	panicOn string

	calls       []string
	coupons     []string
	quantities  []int
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

var _ cartapi.Service = (*stubService)(nil)

func (s *stubService) FetchProducts(ctx context.Context) ([]cartapi.Product, error) {
	return s.products, s.productErr
}

func (s *stubService) FetchCart(ctx context.Context) (cartapi.Cart, error) {
	return s.cart, s.cartErr
}

func (s *stubService) record(name string) (cartapi.Cart, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		prev := s.maxInFlight.Load()
		if n <= prev || s.maxInFlight.CompareAndSwap(prev, n) {
			break
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	if s.panicOn == name {
		panic("service exploded")
	}
	if s.mutateErr != nil {
		return cartapi.Cart{}, s.mutateErr
	}
	return s.cart, nil
}

func (s *stubService) AddItem(ctx context.Context, productID int64, quantity int) (cartapi.Cart, error) {
	s.mu.Lock()
	s.quantities = append(s.quantities, quantity)
	s.mu.Unlock()
	return s.record("add")
}

func (s *stubService) UpdateQuantity(ctx context.Context, productID int64, quantity int) (cartapi.Cart, error) {
	s.mu.Lock()
	s.quantities = append(s.quantities, quantity)
	s.mu.Unlock()
	return s.record("update")
}

func (s *stubService) RemoveItem(ctx context.Context, productID int64) (cartapi.Cart, error) {
	return s.record("remove")
}

func (s *stubService) ApplyCoupon(ctx context.Context, code string) (cartapi.Cart, error) {
	s.mu.Lock()
	s.coupons = append(s.coupons, code)
	s.mu.Unlock()
	return s.record("apply")
}

func (s *stubService) RemoveCoupon(ctx context.Context) (cartapi.Cart, error) {
	return s.record("remove_coupon")
}

func (s *stubService) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newLoadedController(t *testing.T, svc *stubService) (*Controller, *notify.Channel) {
	t.Helper()
	notices := notify.New(notify.WithLifetime(time.Hour))
	c := New(svc, &state.Store{}, notices)
	c.Load(context.Background())
	if c.State().Loading() {
		t.Fatalf("controller still loading after Load")
	}
	return c, notices
}

func currentNotice(t *testing.T, ch *notify.Channel) notify.Notification {
	t.Helper()
	n, ok := ch.Current()
	if !ok {
		t.Fatalf("no notification shown")
	}
	return n
}

func TestLoad_IndependentFailures(t *testing.T) {
	svc := &stubService{
		productErr: errors.New("catalog down"),
		cart:       cartapi.Cart{Items: []cartapi.CartItem{{ProductID: 1, Quantity: 2}}},
	}
	c, notices := newLoadedController(t, svc)

	st := c.State()
	if st.CatalogPhase != state.Failed || len(st.Catalog) != 0 {
		t.Fatalf("catalog phase=%v len=%d, want failed/empty", st.CatalogPhase, len(st.Catalog))
	}
	if st.CartPhase != state.Ready || st.Cart == nil || len(st.Cart.Items) != 1 {
		t.Fatalf("cart not loaded despite catalog failure: %#v", st)
	}
	if n := currentNotice(t, notices); n.Severity != notify.Error || n.Message != msgLoadProducts {
		t.Fatalf("notice = %#v, want %q error", n, msgLoadProducts)
	}
}

func TestLoad_CartFailureUsesServerMessage(t *testing.T) {
	svc := &stubService{
		products: []cartapi.Product{{ID: 1}},
		cartErr:  &cartapi.APIError{Status: 503, Message: "Cart service unavailable"},
	}
	c, notices := newLoadedController(t, svc)

	st := c.State()
	if st.Cart != nil || st.CartPhase != state.Failed {
		t.Fatalf("cart = %v phase=%v, want none/failed", st.Cart, st.CartPhase)
	}
	if st.CatalogPhase != state.Ready || len(st.Catalog) != 1 {
		t.Fatalf("catalog not loaded despite cart failure")
	}
	if n := currentNotice(t, notices); n.Message != "Cart service unavailable" {
		t.Fatalf("notice = %q, want server message", n.Message)
	}
}

func TestMutation_SuccessReplacesSnapshotWholesale(t *testing.T) {
	coupon := "SAVE10"
	svc := &stubService{}
	c, notices := newLoadedController(t, svc)
	before := c.State().Cart

	svc.cart = cartapi.Cart{
		Items:  []cartapi.CartItem{{ProductID: 7, Quantity: 1, PriceCents: 2000, TotalCents: 2000}},
		Totals: cartapi.CartTotals{SubtotalCents: 2000, DiscountCents: 1000, FinalTotalCents: 1000, AppliedCouponCode: &coupon},
	}
	if err := c.AddItem(context.Background(), 7, 1); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}

	st := c.State()
	if st.Cart == before {
		t.Fatalf("snapshot pointer unchanged after success")
	}
	if !reflect.DeepEqual(*st.Cart, svc.cart) {
		t.Fatalf("snapshot = %#v, want server response %#v", *st.Cart, svc.cart)
	}
	if st.Mutating() {
		t.Fatalf("in-flight flag still set")
	}
	if n := currentNotice(t, notices); n.Severity != notify.Success || n.Message != "Item added to cart" {
		t.Fatalf("notice = %#v, want add success", n)
	}
}

func TestMutation_FailureKeepsSnapshotReference(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		run     func(c *Controller) error
		wantMsg string
	}{
		{
			name:    "server message",
			err:     &cartapi.APIError{Status: 409, Message: "Insufficient stock"},
			run:     func(c *Controller) error { return c.AddItem(context.Background(), 7, 50) },
			wantMsg: "Insufficient stock",
		},
		{
			name:    "transport failure add",
			err:     errors.New("connection refused"),
			run:     func(c *Controller) error { return c.AddItem(context.Background(), 7, 1) },
			wantMsg: "Failed to add item",
		},
		{
			name:    "empty body update",
			err:     &cartapi.APIError{Status: 500},
			run:     func(c *Controller) error { return c.SetQuantity(context.Background(), 7, 2) },
			wantMsg: "Failed to update quantity",
		},
		{
			name:    "remove",
			err:     errors.New("timeout"),
			run:     func(c *Controller) error { return c.RemoveItem(context.Background(), 7) },
			wantMsg: "Failed to remove item",
		},
		{
			name:    "apply coupon",
			err:     errors.New("reset"),
			run:     func(c *Controller) error { return c.ApplyCoupon(context.Background(), "save10") },
			wantMsg: "Failed to apply coupon",
		},
		{
			name:    "remove coupon",
			err:     errors.New("reset"),
			run:     func(c *Controller) error { return c.RemoveCoupon(context.Background()) },
			wantMsg: "Failed to remove coupon",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{cart: cartapi.Cart{Items: []cartapi.CartItem{{ProductID: 7, Quantity: 1}}}}
			c, notices := newLoadedController(t, svc)
			before := c.State().Cart

			svc.mutateErr = tt.err
			err := tt.run(c)
			if !errors.Is(err, tt.err) {
				t.Fatalf("error = %v, want wrapped %v", err, tt.err)
			}

			st := c.State()
			if st.Cart != before {
				t.Fatalf("failed mutation replaced the snapshot")
			}
			if st.Mutating() {
				t.Fatalf("in-flight flag not released after failure")
			}
			n := currentNotice(t, notices)
			if n.Severity != notify.Error || n.Message != tt.wantMsg {
				t.Fatalf("notice = %#v, want error %q", n, tt.wantMsg)
			}
		})
	}
}

func TestMutation_FlagReleasedWhenServicePanics(t *testing.T) {
	svc := &stubService{panicOn: "remove"}
	c, notices := newLoadedController(t, svc)
	before := c.State().Cart

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = c.RemoveItem(context.Background(), 1)
	}()

	st := c.State()
	if st.Mutating() {
		t.Fatalf("in-flight flag stuck after panic")
	}
	if st.Cart != before {
		t.Fatalf("snapshot changed after panic")
	}
	if n := currentNotice(t, notices); n.Message != "Failed to remove item" {
		t.Fatalf("notice = %q, want fallback", n.Message)
	}
	if err := c.RemoveCoupon(context.Background()); err != nil {
		t.Fatalf("controller locked out after panic: %v", err)
	}
}

func TestMutation_OverlappingCallsAreDropped(t *testing.T) {
	svc := &stubService{
		cart:    cartapi.Cart{Items: []cartapi.CartItem{{ProductID: 7, Quantity: 1}}},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	c, _ := newLoadedController(t, svc)

	done := make(chan error, 1)
	go func() { done <- c.SetQuantity(context.Background(), 7, 2) }()
	<-svc.started

	if !c.State().Mutating() {
		t.Fatalf("flag not set while request outstanding")
	}
	if err := c.SetQuantity(context.Background(), 7, 3); !errors.Is(err, ErrBusy) {
		t.Fatalf("second click error = %v, want ErrBusy", err)
	}
	if err := c.ApplyCoupon(context.Background(), "SAVE10"); !errors.Is(err, ErrBusy) {
		t.Fatalf("coupon while busy error = %v, want ErrBusy", err)
	}

	close(svc.gate)
	if err := <-done; err != nil {
		t.Fatalf("first click returned error: %v", err)
	}
	if got := svc.callCount(); got != 1 {
		t.Fatalf("service received %d requests, want 1", got)
	}
	if !reflect.DeepEqual(svc.quantities, []int{2}) {
		t.Fatalf("quantities sent = %v, want [2]", svc.quantities)
	}
}

func TestMutation_SingleFlightUnderContention(t *testing.T) {
	svc := &stubService{cart: cartapi.Cart{}}
	c, _ := newLoadedController(t, svc)

	var wg sync.WaitGroup
	var accepted, busy atomic.Int32
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			switch i % 3 {
			case 0:
				err = c.AddItem(context.Background(), 1, 1)
			case 1:
				err = c.SetQuantity(context.Background(), 1, i)
			default:
				err = c.RemoveCoupon(context.Background())
			}
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, ErrBusy):
				busy.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if got := svc.maxInFlight.Load(); got > 1 {
		t.Fatalf("max concurrent mutation requests = %d, want <= 1", got)
	}
	if int(accepted.Load()) != svc.callCount() {
		t.Fatalf("accepted %d mutations but service saw %d", accepted.Load(), svc.callCount())
	}
	if accepted.Load()+busy.Load() != 64 {
		t.Fatalf("accepted+busy = %d, want 64", accepted.Load()+busy.Load())
	}
	if c.State().Mutating() {
		t.Fatalf("flag still set after all mutations settled")
	}
}

func TestApplyCoupon_Normalization(t *testing.T) {
	svc := &stubService{}
	c, notices := newLoadedController(t, svc)

	if err := c.ApplyCoupon(context.Background(), " save10 "); err != nil {
		t.Fatalf("ApplyCoupon returned error: %v", err)
	}
	if !reflect.DeepEqual(svc.coupons, []string{"SAVE10"}) {
		t.Fatalf("coupons sent = %v, want [SAVE10]", svc.coupons)
	}
	if n := currentNotice(t, notices); n.Message != "Coupon SAVE10 applied" {
		t.Fatalf("notice = %q", n.Message)
	}

	for _, code := range []string{"", "   ", "\t\n"} {
		err := c.ApplyCoupon(context.Background(), code)
		if !errors.Is(err, ErrEmptyCoupon) {
			t.Fatalf("ApplyCoupon(%q) error = %v, want ErrEmptyCoupon", code, err)
		}
		if n := currentNotice(t, notices); n.Severity != notify.Error || n.Message != msgEmptyCoupon {
			t.Fatalf("notice = %#v, want empty coupon error", n)
		}
	}
	if got := svc.callCount(); got != 1 {
		t.Fatalf("service received %d requests, want 1", got)
	}
}

func TestAddItem_RejectsNonPositiveQuantity(t *testing.T) {
	svc := &stubService{}
	c, _ := newLoadedController(t, svc)

	for _, qty := range []int{0, -1} {
		if err := c.AddItem(context.Background(), 7, qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("AddItem(qty=%d) error = %v, want ErrInvalidQuantity", qty, err)
		}
	}
	if svc.callCount() != 0 {
		t.Fatalf("invalid add reached the service")
	}
}

func TestSetQuantity_DelegatesLowerBoundToServer(t *testing.T) {
	svc := &stubService{}
	c, _ := newLoadedController(t, svc)

	if err := c.SetQuantity(context.Background(), 7, 0); err != nil {
		t.Fatalf("SetQuantity(0) returned error: %v", err)
	}
	if !reflect.DeepEqual(svc.quantities, []int{0}) {
		t.Fatalf("quantities sent = %v, want [0]", svc.quantities)
	}
}

func TestMutation_RejectedWhileCartLoading(t *testing.T) {
	svc := &stubService{}
	c := New(svc, &state.Store{}, notify.New())
	if err := c.RemoveCoupon(context.Background()); !errors.Is(err, state.ErrCartLoading) {
		t.Fatalf("error = %v, want ErrCartLoading", err)
	}
	if svc.callCount() != 0 {
		t.Fatalf("request sent before cart load")
	}
}

func TestNormalizeCoupon(t *testing.T) {
	cases := map[string]string{
		" save10 ": "SAVE10",
		"Off10":    "OFF10",
		"   ":      "",
	}
	for in, want := range cases {
		if got := NormalizeCoupon(in); got != want {
			t.Fatalf("NormalizeCoupon(%q) = %q, want %q", in, got, want)
		}
	}
}
