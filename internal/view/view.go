// Package view derives everything the screen shows from the application
// state. It holds no state of its own.
package view

import (
	"github.com/shopspring/decimal"

	"github.com/five82/basket/internal/cartapi"
	"github.com/five82/basket/internal/notify"
	"github.com/five82/basket/internal/state"
)

// DefaultCurrency is the prefix used by FormatPrice.
const DefaultCurrency = "$"

// FormatPrice renders integer cents as a dollar amount: 1050 → "$10.50".
func FormatPrice(cents int64) string {
	return FormatPriceWith(DefaultCurrency, cents)
}

// FormatPriceWith renders cents with an arbitrary currency prefix.
// Negative amounts put the sign before the prefix.
func FormatPriceWith(symbol string, cents int64) string {
	amount := decimal.New(cents, -2)
	if amount.IsNegative() {
		return "-" + symbol + amount.Neg().StringFixed(2)
	}
	return symbol + amount.StringFixed(2)
}

// ProductRow is one catalog entry ready for display.
type ProductRow struct {
	ID     int64
	Name   string
	SKU    string
	Price  string
	InCart int
	// Stock is zero when the catalog does not report it.
	Stock int
}

// LineRow is one cart line ready for display.
type LineRow struct {
	ProductID int64
	Name      string
	Quantity  int
	Price     string
	Total     string
}

// Summary is the formatted order summary.
type Summary struct {
	Subtotal    string
	Discount    string
	Total       string
	HasDiscount bool
}

// View is the full projection of one frame.
type View struct {
	Loading          bool
	CatalogFailed    bool
	CartFailed       bool
	ControlsDisabled bool
	Busy             state.Op

	Products []ProductRow
	Lines    []LineRow
	// ItemCount is the sum of line quantities.
	ItemCount int

	EmptyCart     bool
	ShowSummary   bool
	CouponApplied bool
	CouponCode    string
	Summary       Summary

	Notice    notify.Notification
	HasNotice bool
}

// Project builds the View for st. notice may be nil.
func Project(st state.State, notice *notify.Notification, symbol string) View {
	if symbol == "" {
		symbol = DefaultCurrency
	}
	v := View{
		Loading:          st.Loading(),
		CatalogFailed:    st.CatalogPhase == state.Failed,
		CartFailed:       st.CartPhase == state.Failed,
		ControlsDisabled: st.Mutating(),
		Busy:             st.Mutation,
	}

	names := make(map[int64]string, len(st.Catalog))
	for _, p := range st.Catalog {
		names[p.ID] = p.Name
	}

	cart := st.Cart
	v.EmptyCart = cart == nil || len(cart.Items) == 0
	v.ShowSummary = !v.EmptyCart
	if cart != nil {
		v.Lines = make([]LineRow, 0, len(cart.Items))
		for _, item := range cart.Items {
			v.Lines = append(v.Lines, lineRow(item, names, symbol))
			v.ItemCount += item.Quantity
		}
		if code, ok := cart.Totals.CouponCode(); ok {
			v.CouponApplied = true
			v.CouponCode = code
		}
		v.Summary = Summary{
			Subtotal:    FormatPriceWith(symbol, cart.Totals.SubtotalCents),
			Discount:    FormatPriceWith(symbol, cart.Totals.DiscountCents),
			Total:       FormatPriceWith(symbol, cart.Totals.FinalTotalCents),
			HasDiscount: cart.Totals.DiscountCents > 0,
		}
	}

	v.Products = make([]ProductRow, 0, len(st.Catalog))
	for _, p := range st.Catalog {
		row := ProductRow{
			ID:    p.ID,
			Name:  p.Name,
			SKU:   p.SKU,
			Price: FormatPriceWith(symbol, p.PriceCents),
			Stock: p.Stock,
		}
		if cart != nil {
			if item, ok := cart.Item(p.ID); ok {
				row.InCart = item.Quantity
			}
		}
		v.Products = append(v.Products, row)
	}

	if notice != nil {
		v.Notice = *notice
		v.HasNotice = true
	}
	return v
}

func lineRow(item cartapi.CartItem, names map[int64]string, symbol string) LineRow {
	name := item.Name
	if name == "" {
		name = names[item.ProductID]
	}
	if name == "" {
		name = "Unknown product"
	}
	return LineRow{
		ProductID: item.ProductID,
		Name:      name,
		Quantity:  item.Quantity,
		Price:     FormatPriceWith(symbol, item.PriceCents),
		Total:     FormatPriceWith(symbol, item.TotalCents),
	}
}
