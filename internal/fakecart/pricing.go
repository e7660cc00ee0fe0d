package fakecart

import (
	"github.com/shopspring/decimal"

	"github.com/five82/basket/internal/cartapi"
)

// Coupon codes understood by the reference server.
const (
	CouponSave10 = "SAVE10"
	CouponOff10  = "OFF10"
	CouponAuto5  = "AUTO5"
)

const (
	save10FlatCents   = 1000
	off10CapCents     = 2000
	auto5MinimumCents = 10000
)

var (
	tenPercent  = decimal.New(10, -2)
	fivePercent = decimal.New(5, -2)
)

type coupon struct {
	code     string
	discount func(subtotal int64) int64
}

var manualCoupons = map[string]coupon{
	CouponSave10: {code: CouponSave10, discount: func(int64) int64 { return save10FlatCents }},
	CouponOff10: {code: CouponOff10, discount: func(subtotal int64) int64 {
		return min(percentOf(subtotal, tenPercent), off10CapCents)
	}},
}

var autoCoupon = coupon{code: CouponAuto5, discount: func(subtotal int64) int64 {
	return percentOf(subtotal, fivePercent)
}}

func percentOf(cents int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(cents).Mul(rate).Round(0).IntPart()
}

// price turns a stored cart into the wire snapshot. Lines whose product
// disappeared from the catalog are skipped.
func price(c *storedCart, catalog map[int64]cartapi.Product) cartapi.Cart {
	out := cartapi.Cart{Items: make([]cartapi.CartItem, 0, len(c.lines))}
	var subtotal int64
	for _, ln := range c.lines {
		product, ok := catalog[ln.productID]
		if !ok {
			continue
		}
		total := product.PriceCents * int64(ln.quantity)
		subtotal += total
		out.Items = append(out.Items, cartapi.CartItem{
			ProductID:  product.ID,
			Name:       product.Name,
			Quantity:   ln.quantity,
			PriceCents: product.PriceCents,
			TotalCents: total,
		})
	}

	applied, ok := manualCoupons[c.coupon]
	if !ok && subtotal >= auto5MinimumCents {
		applied, ok = autoCoupon, true
	}

	var discount int64
	if ok {
		discount = max(0, min(applied.discount(subtotal), subtotal))
		code := applied.code
		out.Totals.AppliedCouponCode = &code
	}
	out.Totals.SubtotalCents = subtotal
	out.Totals.DiscountCents = discount
	out.Totals.FinalTotalCents = subtotal - discount
	return out
}
