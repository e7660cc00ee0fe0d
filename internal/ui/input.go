package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/basket/internal/prefs"
	"github.com/five82/basket/internal/state"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.editingCoupon {
		return m.handleCouponKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.toggleFocus()
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		if m.notices != nil {
			m.notices.Dismiss()
		}
		m.notice = nil
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.setSelection(0)
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.setSelection(m.rowCount() - 1)
		return m, nil

	case key.Matches(msg, m.keys.RemoveCoupon):
		return m.removeCoupon()

	case key.Matches(msg, m.keys.Coupon):
		return m.openCouponInput()
	}

	switch m.focus {
	case paneCatalog:
		if key.Matches(msg, m.keys.Add) {
			return m.addSelected()
		}
	case paneCart:
		switch {
		case key.Matches(msg, m.keys.Increase):
			return m.changeQuantity(1)
		case key.Matches(msg, m.keys.Decrease):
			return m.changeQuantity(-1)
		case key.Matches(msg, m.keys.Remove):
			return m.removeSelected()
		}
	}

	return m, nil
}

// handleCouponKey routes keys to the coupon text input.
func (m Model) handleCouponKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeCouponInput()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if !m.canMutate() {
			return m, nil
		}
		code := m.couponInput.Value()
		m.closeCouponInput()
		controller := m.controller
		return m.startMutation(state.OpApplyCoupon, func(ctx context.Context) error {
			return controller.ApplyCoupon(ctx, code)
		})
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.couponInput, cmd = m.couponInput.Update(msg)
	return m, cmd
}

// canMutate reports whether a new mutation may be issued. Both the local
// pending flag and the store's in-flight flag must be clear.
func (m Model) canMutate() bool {
	if m.controller == nil || m.pending {
		return false
	}
	return !m.snapshot.Mutating() && m.snapshot.CartPhase.Settled()
}

// startMutation issues run as a command and marks the model pending.
func (m Model) startMutation(op state.Op, run func(context.Context) error) (tea.Model, tea.Cmd) {
	if !m.canMutate() {
		return m, nil
	}
	m.pending = true
	ctx := m.ctx
	return m, func() tea.Msg {
		return mutationDoneMsg{op: op, err: run(ctx)}
	}
}

func (m Model) addSelected() (tea.Model, tea.Cmd) {
	if m.catalogRow >= len(m.snapshot.Catalog) {
		return m, nil
	}
	productID := m.snapshot.Catalog[m.catalogRow].ID
	controller := m.controller
	return m.startMutation(state.OpAddItem, func(ctx context.Context) error {
		return controller.AddItem(ctx, productID, 1)
	})
}

// changeQuantity moves the selected line's quantity by delta. Going below one
// is ignored; removing a line is an explicit action.
func (m Model) changeQuantity(delta int) (tea.Model, tea.Cmd) {
	c := m.snapshot.Cart
	if c == nil || m.cartRow >= len(c.Items) {
		return m, nil
	}
	line := c.Items[m.cartRow]
	next := line.Quantity + delta
	if next < 1 {
		return m, nil
	}
	controller := m.controller
	return m.startMutation(state.OpUpdateQuantity, func(ctx context.Context) error {
		return controller.SetQuantity(ctx, line.ProductID, next)
	})
}

func (m Model) removeSelected() (tea.Model, tea.Cmd) {
	c := m.snapshot.Cart
	if c == nil || m.cartRow >= len(c.Items) {
		return m, nil
	}
	productID := c.Items[m.cartRow].ProductID
	controller := m.controller
	return m.startMutation(state.OpRemoveItem, func(ctx context.Context) error {
		return controller.RemoveItem(ctx, productID)
	})
}

func (m Model) removeCoupon() (tea.Model, tea.Cmd) {
	if m.snapshot.Cart == nil {
		return m, nil
	}
	if _, ok := m.snapshot.Cart.Totals.CouponCode(); !ok {
		return m, nil
	}
	controller := m.controller
	return m.startMutation(state.OpRemoveCoupon, func(ctx context.Context) error {
		return controller.RemoveCoupon(ctx)
	})
}

// openCouponInput shows the coupon field when no coupon is applied.
func (m Model) openCouponInput() (tea.Model, tea.Cmd) {
	if m.snapshot.Cart != nil {
		if _, ok := m.snapshot.Cart.Totals.CouponCode(); ok {
			return m, nil
		}
	}
	m.editingCoupon = true
	m.focus = paneCart
	m.couponInput.Reset()
	return m, m.couponInput.Focus()
}

func (m *Model) closeCouponInput() {
	m.editingCoupon = false
	m.couponInput.Blur()
	m.couponInput.Reset()
}

func (m *Model) toggleFocus() {
	if m.focus == paneCatalog {
		m.focus = paneCart
		return
	}
	m.focus = paneCatalog
}

func (m *Model) rowCount() int {
	if m.focus == paneCatalog {
		return len(m.snapshot.Catalog)
	}
	if m.snapshot.Cart == nil {
		return 0
	}
	return len(m.snapshot.Cart.Items)
}

func (m *Model) moveSelection(delta int) {
	if m.focus == paneCatalog {
		m.setSelection(m.catalogRow + delta)
		return
	}
	m.setSelection(m.cartRow + delta)
}

func (m *Model) setSelection(row int) {
	row = clampIndex(row, m.rowCount())
	if m.focus == paneCatalog {
		m.catalogRow = row
		return
	}
	m.cartRow = row
}

// cycleTheme switches to the next theme and persists the choice.
func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name}); err != nil {
		m.log.Warn().Err(err).Str("path", m.prefsPath).Msg("save prefs failed")
	}
}
