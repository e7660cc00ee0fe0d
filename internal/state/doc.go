// Package state holds the client's view of the catalog and the cart.
//
// # Overview
//
// All shared data lives in a single State value. It only changes through
// State.Apply, which takes the prior state and an Event and returns the next
// state. Store wraps that with a mutex so the loaders, the cart controller and
// the UI can share it.
//
//	Loaders / controller:          UI:
//	┌───────────────────┐         ┌──────────────────┐
//	│ store.Dispatch(ev)│────────→│ store.Snapshot() │
//	│   State.Apply     │ (mutex) │   view.Project   │
//	└───────────────────┘         └──────────────────┘
//
// # Transitions
//
//	CatalogLoaded{Products}        CatalogPhase Loading → Ready
//	CatalogLoaded{Err}             CatalogPhase Loading → Failed, catalog empty
//	CartLoaded{Cart}               CartPhase Loading → Ready
//	CartLoaded{Err}                CartPhase Loading → Failed, no cart
//	MutationStarted{Op}            Mutation none → Op
//	                               (ErrMutationInFlight if one is outstanding,
//	                                ErrCartLoading before the cart loader settles)
//	MutationSettled{Op, Cart}      Mutation Op → none, Cart replaced wholesale
//	MutationSettled{Op, Err}       Mutation Op → none, Cart pointer kept
//
// MutationStarted is the only way to take the in-flight flag, and it is taken
// under the Store lock, so at most one mutation can be outstanding.
//
// # Snapshots
//
// The cart is never patched. A successful mutation installs the server's
// response as a new pointer and a failed one leaves the old pointer in place,
// so callers can compare snapshots by reference. Snapshot copies the catalog
// slice but shares the cart pointer; treat it as read-only.
package state
