package state

import (
	"errors"

	"github.com/five82/basket/internal/cartapi"
)

// Transition errors returned by State.Apply.
var (
	ErrMutationInFlight = errors.New("a cart update is already in progress")
	ErrCartLoading      = errors.New("cart is still loading")
	ErrNoMutation       = errors.New("no cart update in progress")
	ErrUnknownEvent     = errors.New("unknown event")
)

// LoadPhase tracks a one-shot startup loader.
type LoadPhase int

const (
	Loading LoadPhase = iota
	Ready
	Failed
)

func (p LoadPhase) String() string {
	switch p {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "loading"
	}
}

// Settled reports whether the loader finished, successfully or not.
func (p LoadPhase) Settled() bool { return p != Loading }

// Op identifies a cart mutation.
type Op int

const (
	OpNone Op = iota
	OpAddItem
	OpUpdateQuantity
	OpRemoveItem
	OpApplyCoupon
	OpRemoveCoupon
)

func (o Op) String() string {
	switch o {
	case OpAddItem:
		return "add_item"
	case OpUpdateQuantity:
		return "update_quantity"
	case OpRemoveItem:
		return "remove_item"
	case OpApplyCoupon:
		return "apply_coupon"
	case OpRemoveCoupon:
		return "remove_coupon"
	default:
		return "none"
	}
}

// State is the whole client-side view of the catalog and cart.
//
// Cart is nil until the cart loader succeeds. A non-nil Cart is never
// modified in place; every accepted mutation swaps the pointer.
type State struct {
	Catalog      []cartapi.Product
	CatalogPhase LoadPhase
	Cart         *cartapi.Cart
	CartPhase    LoadPhase
	Mutation     Op
}

// Mutating reports whether a cart mutation is outstanding.
func (s State) Mutating() bool { return s.Mutation != OpNone }

// Loading reports whether either startup loader is still running.
func (s State) Loading() bool {
	return !s.CatalogPhase.Settled() || !s.CartPhase.Settled()
}

// Event is an input to State.Apply.
type Event interface {
	event()
}

// CatalogLoaded settles the catalog loader.
type CatalogLoaded struct {
	Products []cartapi.Product
	Err      error
}

// CartLoaded settles the cart loader.
type CartLoaded struct {
	Cart *cartapi.Cart
	Err  error
}

// MutationStarted takes the in-flight flag for Op.
type MutationStarted struct {
	Op Op
}

// MutationSettled releases the in-flight flag. On success Cart replaces the
// snapshot; on failure the snapshot is kept.
type MutationSettled struct {
	Op   Op
	Cart *cartapi.Cart
	Err  error
}

func (CatalogLoaded) event()   {}
func (CartLoaded) event()      {}
func (MutationStarted) event() {}
func (MutationSettled) event() {}

// Apply returns the state that follows s after ev. A rejected event returns s
// unchanged together with the reason.
func (s State) Apply(ev Event) (State, error) {
	switch ev := ev.(type) {
	case CatalogLoaded:
		if ev.Err != nil {
			s.Catalog = nil
			s.CatalogPhase = Failed
			return s, nil
		}
		s.Catalog = cloneProducts(ev.Products)
		s.CatalogPhase = Ready
		return s, nil

	case CartLoaded:
		if ev.Err != nil || ev.Cart == nil {
			s.Cart = nil
			s.CartPhase = Failed
			return s, nil
		}
		s.Cart = ev.Cart
		s.CartPhase = Ready
		return s, nil

	case MutationStarted:
		if s.Mutating() {
			return s, ErrMutationInFlight
		}
		if !s.CartPhase.Settled() {
			return s, ErrCartLoading
		}
		if ev.Op == OpNone {
			return s, ErrUnknownEvent
		}
		s.Mutation = ev.Op
		return s, nil

	case MutationSettled:
		if !s.Mutating() {
			return s, ErrNoMutation
		}
		s.Mutation = OpNone
		if ev.Err == nil && ev.Cart != nil {
			s.Cart = ev.Cart
		}
		return s, nil
	}
	return s, ErrUnknownEvent
}

func cloneProducts(items []cartapi.Product) []cartapi.Product {
	if len(items) == 0 {
		return nil
	}
	dup := make([]cartapi.Product, len(items))
	copy(dup, items)
	return dup
}
