package cart

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/basket/internal/cartapi"
	"github.com/five82/basket/internal/fakecart"
	"github.com/five82/basket/internal/notify"
	"github.com/five82/basket/internal/state"
)

func newFakeBackedController(t *testing.T, opts ...fakecart.Option) (*Controller, *notify.Channel, *fakecart.Server) {
	t.Helper()
	srv := fakecart.New(opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := cartapi.NewClient(ts.URL, "scenario")
	require.NoError(t, err)

	notices := notify.New(notify.WithLifetime(time.Hour))
	c := New(client, &state.Store{}, notices)
	c.Load(context.Background())

	st := c.State()
	require.Equal(t, state.Ready, st.CatalogPhase)
	require.Equal(t, state.Ready, st.CartPhase)
	return c, notices, srv
}

func TestScenario_AddThenRemove(t *testing.T) {
	c, _, _ := newFakeBackedController(t)
	ctx := context.Background()
	require.Empty(t, c.State().Cart.Items)

	require.NoError(t, c.AddItem(ctx, 7, 1))
	cart := c.State().Cart
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(7), cart.Items[0].ProductID)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	require.NoError(t, c.RemoveItem(ctx, 7))
	cart = c.State().Cart
	assert.Empty(t, cart.Items)
	assert.Nil(t, cart.Totals.AppliedCouponCode)
}

func TestScenario_CouponLifecycle(t *testing.T) {
	c, notices, _ := newFakeBackedController(t)
	ctx := context.Background()

	require.NoError(t, c.AddItem(ctx, 7, 1))
	require.Equal(t, int64(2000), c.State().Cart.Totals.SubtotalCents)

	require.NoError(t, c.ApplyCoupon(ctx, " save10 "))
	totals := c.State().Cart.Totals
	assert.Equal(t, int64(1000), totals.DiscountCents)
	code, ok := totals.CouponCode()
	require.True(t, ok)
	assert.Equal(t, "SAVE10", code)
	n, _ := notices.Current()
	assert.Equal(t, "Coupon SAVE10 applied", n.Message)

	require.NoError(t, c.RemoveCoupon(ctx))
	totals = c.State().Cart.Totals
	assert.Zero(t, totals.DiscountCents)
	assert.Nil(t, totals.AppliedCouponCode)
	assert.Equal(t, totals.SubtotalCents, totals.FinalTotalCents)
}

func TestScenario_ServerErrorSurfacesVerbatim(t *testing.T) {
	c, notices, _ := newFakeBackedController(t)
	ctx := context.Background()
	before := c.State().Cart

	err := c.ApplyCoupon(ctx, "nope")
	require.Error(t, err)
	assert.Same(t, before, c.State().Cart)
	n, ok := notices.Current()
	require.True(t, ok)
	assert.Equal(t, notify.Error, n.Severity)
	assert.Equal(t, fakecart.ErrMsgInvalidCoupon, n.Message)
}

func TestScenario_OverlappingClicksSendOneRequest(t *testing.T) {
	c, _, srv := newFakeBackedController(t, fakecart.WithLatency(150*time.Millisecond))
	ctx := context.Background()
	require.NoError(t, c.AddItem(ctx, 7, 1))
	baseline := srv.Requests()

	done := make(chan error, 1)
	go func() { done <- c.SetQuantity(ctx, 7, 2) }()
	require.Eventually(t, func() bool { return c.State().Mutating() }, time.Second, time.Millisecond)

	assert.ErrorIs(t, c.SetQuantity(ctx, 7, 3), ErrBusy)
	require.NoError(t, <-done)

	assert.Equal(t, baseline+1, srv.Requests())
	assert.Equal(t, 2, c.State().Cart.Items[0].Quantity)
	assert.False(t, c.State().Mutating())
}
