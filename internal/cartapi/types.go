package cartapi

import (
	"fmt"
	"strings"
)

// Product mirrors an entry of /products.
type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	SKU        string `json:"sku"`
	PriceCents int64  `json:"priceCents"`
	Stock      int    `json:"stock,omitempty"`
}

// CartItem is one server-priced line of the cart.
type CartItem struct {
	ProductID  int64  `json:"productId"`
	Name       string `json:"name,omitempty"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"priceCents"`
	TotalCents int64  `json:"totalCents"`
}

// CartTotals carries the server-computed money fields of a cart.
type CartTotals struct {
	SubtotalCents     int64   `json:"subtotalCents"`
	DiscountCents     int64   `json:"discountCents"`
	FinalTotalCents   int64   `json:"finalTotalCents"`
	AppliedCouponCode *string `json:"appliedCouponCode"`
}

// CouponCode returns the applied coupon and whether one is set.
func (t CartTotals) CouponCode() (string, bool) {
	if t.AppliedCouponCode == nil {
		return "", false
	}
	return *t.AppliedCouponCode, true
}

// Cart is the full snapshot returned by every cart endpoint.
type Cart struct {
	Items  []CartItem `json:"items"`
	Totals CartTotals `json:"totals"`
}

// Item returns the line for productID, if present.
func (c Cart) Item(productID int64) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

// ErrorResponse is the body shape of non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// APIError is returned when the service answers with a non-2xx status.
// Message holds the server's error text verbatim and is empty when the body
// carried none.
type APIError struct {
	Status  int
	Message string
	Path    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
}

type addItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type couponRequest struct {
	Code string `json:"code"`
}
