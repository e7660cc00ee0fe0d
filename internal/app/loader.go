package app

import (
	"context"

	"github.com/five82/basket/internal/cart"
)

// startLoaders runs the catalog and cart loaders in the background and
// returns a channel that is closed once both have settled. The UI starts
// without waiting for it.
func startLoaders(ctx context.Context, controller *cart.Controller) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		controller.Load(ctx)
	}()
	return done
}
