// Package ui is the Bubble Tea front end for basket.
//
// The model follows the Elm architecture. It never talks to the cart service
// directly: every user action becomes a tea.Cmd that calls cart.Controller,
// and the result comes back as a mutationDoneMsg. The model re-reads the
// controller's state and the notification channel on a short tick and after
// every result, so the screen always renders the last accepted cart snapshot.
//
// # Layout
//
//	┌ header: title, status, item count, total ───────────────┐
//	│ command bar: key hints for the focused pane             │
//	├ Products ─────────────────┬ Cart ───────────────────────┤
//	│ name        price  ×qty   │ name     qty × price  total │
//	│                           │ coupon panel                │
//	│                           │ order summary               │
//	└───────────────────────────┴─────────────────────────────┘
//	  notification bar
//
// # Key Bindings
//
//   - tab: switch between products and cart
//   - j/k, g/G: move the selection
//   - a/enter: add the selected product (products pane)
//   - +/-: change the selected line's quantity (cart pane); - stops at 1
//   - x/delete: remove the selected line
//   - c: enter a coupon code; enter applies, esc cancels
//   - C: remove the applied coupon
//   - esc: dismiss the notification
//   - T: cycle theme (saved to prefs)
//   - ?: help
//   - q/ctrl+c: quit
//
// Mutating keys do nothing while a mutation is in flight. The model keeps its
// own pending flag in addition to the store's, so a second key press that
// arrives before the first command has started is dropped too.
package ui
