// Package fakecart is an in-memory cart service that speaks the same HTTP
// contract as the real pricing/inventory backend. It backs the -demo mode
// and the end-to-end tests.
package fakecart

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/five82/basket/internal/cartapi"
)

// Error messages returned in {"error": ...} bodies.
const (
	ErrMsgInvalidBody     = "Invalid request body"
	ErrMsgInvalidProduct  = "Invalid product id"
	ErrMsgInvalidQuantity = "Quantity must be a positive integer"
	ErrMsgUnknownProduct  = "Product not found"
	ErrMsgNotInCart       = "Item not in cart"
	ErrMsgInsufficient    = "Insufficient stock"
	ErrMsgInvalidCoupon   = "Invalid coupon code"
)

type line struct {
	productID int64
	quantity  int
}

type storedCart struct {
	lines  []line
	coupon string
}

func (c *storedCart) find(productID int64) int {
	for i, ln := range c.lines {
		if ln.productID == productID {
			return i
		}
	}
	return -1
}

// Server holds every cart in memory.
type Server struct {
	mu       sync.Mutex
	catalog  map[int64]cartapi.Product
	order    []int64
	carts    map[string]*storedCart
	latency  time.Duration
	log      zerolog.Logger
	requests int
}

// Option configures a Server.
type Option func(*Server)

// WithProducts replaces the seeded catalog.
func WithProducts(products []cartapi.Product) Option {
	return func(s *Server) {
		s.catalog = make(map[int64]cartapi.Product, len(products))
		s.order = s.order[:0]
		for _, p := range products {
			s.catalog[p.ID] = p
			s.order = append(s.order, p.ID)
		}
	}
}

// WithLatency delays every response, which makes in-flight states visible.
func WithLatency(d time.Duration) Option {
	return func(s *Server) { s.latency = d }
}

// WithLogger enables request logging.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New returns a Server seeded with DefaultProducts.
func New(opts ...Option) *Server {
	s := &Server{carts: make(map[string]*storedCart), log: zerolog.Nop()}
	WithProducts(DefaultProducts())(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultProducts is the demo catalog.
func DefaultProducts() []cartapi.Product {
	return []cartapi.Product{
		{ID: 1, Name: "Espresso Beans 1kg", SKU: "COF-ESP-1KG", PriceCents: 2450, Stock: 40},
		{ID: 2, Name: "Pour-over Kettle", SKU: "KTL-PO-01", PriceCents: 5900, Stock: 12},
		{ID: 3, Name: "Paper Filters (100)", SKU: "FLT-100", PriceCents: 650, Stock: 200},
		{ID: 4, Name: "Burr Grinder", SKU: "GRD-BURR", PriceCents: 12900, Stock: 5},
		{ID: 5, Name: "Milk Frother", SKU: "FRTH-01", PriceCents: 3400, Stock: 18},
		{ID: 6, Name: "Travel Tumbler", SKU: "TMB-12OZ", PriceCents: 1850, Stock: 30},
		{ID: 7, Name: "Ceramic Mug", SKU: "MUG-CER-7", PriceCents: 2000, Stock: 25},
		{ID: 8, Name: "Descaling Tablets", SKU: "DSC-TAB", PriceCents: 5, Stock: 500},
	}
}

// Requests reports how many requests reached a handler.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggerMiddleware(s.log))
	r.Use(middleware.Recoverer)
	r.Use(s.countAndDelay)

	r.Get("/products", s.listProducts)
	r.Route("/cart/{userID}", func(r chi.Router) {
		r.Get("/", s.getCart)
		r.Post("/item", s.addItem)
		r.Put("/item/{productID}", s.updateQuantity)
		r.Delete("/item/{productID}", s.removeItem)
		r.Post("/coupon/apply", s.applyCoupon)
		r.Post("/coupon/remove", s.removeCoupon)
	})
	return r
}

func (s *Server) countAndDelay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		latency := s.latency
		s.mu.Unlock()
		if latency > 0 {
			select {
			case <-time.After(latency):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]cartapi.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.catalog[id])
	}
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	s.withCart(w, r, func(c *storedCart) (int, string) { return 0, "" })
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidBody)
		return
	}
	s.withCart(w, r, func(c *storedCart) (int, string) {
		if req.Quantity < 1 {
			return http.StatusBadRequest, ErrMsgInvalidQuantity
		}
		product, ok := s.catalog[req.ProductID]
		if !ok {
			return http.StatusNotFound, ErrMsgUnknownProduct
		}
		idx := c.find(req.ProductID)
		want := req.Quantity
		if idx >= 0 {
			want += c.lines[idx].quantity
		}
		if product.Stock > 0 && want > product.Stock {
			return http.StatusConflict, ErrMsgInsufficient
		}
		if idx >= 0 {
			c.lines[idx].quantity = want
		} else {
			c.lines = append(c.lines, line{productID: req.ProductID, quantity: want})
		}
		return 0, ""
	})
}

func (s *Server) updateQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidBody)
		return
	}
	s.withCart(w, r, func(c *storedCart) (int, string) {
		if req.Quantity < 1 {
			return http.StatusBadRequest, ErrMsgInvalidQuantity
		}
		idx := c.find(productID)
		if idx < 0 {
			return http.StatusNotFound, ErrMsgNotInCart
		}
		if product := s.catalog[productID]; product.Stock > 0 && req.Quantity > product.Stock {
			return http.StatusConflict, ErrMsgInsufficient
		}
		c.lines[idx].quantity = req.Quantity
		return 0, ""
	})
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	s.withCart(w, r, func(c *storedCart) (int, string) {
		idx := c.find(productID)
		if idx < 0 {
			return http.StatusNotFound, ErrMsgNotInCart
		}
		c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
		return 0, ""
	})
}

func (s *Server) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidBody)
		return
	}
	s.withCart(w, r, func(c *storedCart) (int, string) {
		if _, ok := manualCoupons[req.Code]; !ok {
			return http.StatusBadRequest, ErrMsgInvalidCoupon
		}
		c.coupon = req.Code
		return 0, ""
	})
}

func (s *Server) removeCoupon(w http.ResponseWriter, r *http.Request) {
	s.withCart(w, r, func(c *storedCart) (int, string) {
		c.coupon = ""
		return 0, ""
	})
}

// withCart runs mutate against the caller's cart under the server lock and
// writes either the error or the priced snapshot. A zero status means success.
func (s *Server) withCart(w http.ResponseWriter, r *http.Request, mutate func(c *storedCart) (int, string)) {
	userID := chi.URLParam(r, "userID")

	s.mu.Lock()
	c, ok := s.carts[userID]
	if !ok {
		c = &storedCart{}
		s.carts[userID] = c
	}
	status, msg := mutate(c)
	var snapshot cartapi.Cart
	if status == 0 {
		snapshot = price(c, s.catalog)
	}
	s.mu.Unlock()

	if status != 0 {
		respondError(w, status, msg)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

func parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidProduct)
		return 0, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, cartapi.ErrorResponse{Error: message})
}
