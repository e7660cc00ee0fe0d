package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/basket/internal/notify"
	"github.com/five82/basket/internal/state"
	"github.com/five82/basket/internal/view"
)

// renderMain renders the full screen: header, command bar, the two panes and
// the notification bar.
func (m Model) renderMain() string {
	v := m.projection()

	var b strings.Builder
	b.WriteString(m.renderHeader(v))
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar(v))
	b.WriteString("\n")
	b.WriteString(m.renderPanes(v))
	b.WriteString("\n")
	b.WriteString(m.renderNoticeBar(v))
	return b.String()
}

// renderHeader renders the title and status line.
func (m Model) renderHeader(v view.View) string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("basket", styles.Logo)}

	switch {
	case v.Loading:
		parts = append(parts, bg.Render("Loading...", styles.WarningText.Bold(true)))
	case v.ControlsDisabled || m.pending:
		label := "Updating..."
		if v.Busy != state.OpNone && !compact {
			label = "Updating " + v.Busy.String() + "..."
		}
		parts = append(parts, bg.Render(label, styles.WarningText.Bold(true)))
	default:
		parts = append(parts, bg.Render("● Ready", styles.SuccessText))
	}

	parts = append(parts,
		bg.Render("Items:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", v.ItemCount), styles.Text),
	)
	if v.ShowSummary {
		parts = append(parts,
			bg.Render("Total:", styles.MutedText)+bg.Space()+
				bg.Render(v.Summary.Total, styles.Text),
		)
	}

	if v.CatalogFailed {
		parts = append(parts, bg.Render("Catalog unavailable", styles.DangerText))
	}
	if v.CartFailed {
		parts = append(parts, bg.Render("Cart unavailable", styles.DangerText))
	}

	if !compact && !m.now.IsZero() {
		parts = append(parts, bg.Render(m.now.Format("15:04:05"), styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// commandHint is one entry of the command bar. Hints for mutating actions
// are marked so they can be dimmed while a change is in flight.
type commandHint struct {
	key, desc string
	mutates   bool
	disabled  bool
}

// commandHints returns the hints for the focused pane. Mutating hints are
// disabled while mutations are not accepted.
func (m Model) commandHints(v view.View) []commandHint {
	hints := m.paneHints(v)
	if !m.canMutate() {
		for i := range hints {
			hints[i].disabled = hints[i].mutates
		}
	}
	return hints
}

func (m Model) paneHints(v view.View) []commandHint {
	switch {
	case m.editingCoupon:
		return []commandHint{
			{key: "enter", desc: "Apply", mutates: true},
			{key: "esc", desc: "Cancel"},
		}
	case m.focus == paneCart:
		hints := []commandHint{
			{key: "+/-", desc: "Quantity", mutates: true},
			{key: "x", desc: "Remove", mutates: true},
		}
		if v.CouponApplied {
			hints = append(hints, commandHint{key: "C", desc: "Remove coupon", mutates: true})
		} else {
			hints = append(hints, commandHint{key: "c", desc: "Coupon"})
		}
		return append(hints,
			commandHint{key: "tab", desc: "Products"},
			commandHint{key: "?", desc: "More"},
			commandHint{key: "q", desc: "Quit"},
		)
	default:
		return []commandHint{
			{key: "a", desc: "Add", mutates: true},
			{key: "j/k", desc: "Navigate"},
			{key: "c", desc: "Coupon"},
			{key: "tab", desc: "Cart"},
			{key: "?", desc: "More"},
			{key: "q", desc: "Quit"},
		}
	}
}

// renderCommandBar renders the key hints for the focused pane.
func (m Model) renderCommandBar(v view.View) string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	hints := m.commandHints(v)
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		keyStyle, descStyle := styles.AccentText, styles.MutedText
		if h.disabled {
			keyStyle, descStyle = styles.FaintText, styles.FaintText
		}
		parts = append(parts,
			bg.Render("<"+h.key+">", keyStyle)+bg.Space()+
				bg.Render(h.desc, descStyle))
	}
	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderPanes lays out the catalog and cart side by side.
func (m Model) renderPanes(v view.View) string {
	height := maxInt(m.height-3, MinPaneHeight)

	catalogWidth := m.width * 55 / 100
	switch {
	case m.width < LayoutCompactWidth:
		catalogWidth = m.width / 2
	case m.width >= LayoutWideWidth:
		catalogWidth = m.width * 60 / 100
	}
	cartWidth := m.width - catalogWidth

	catalogFocused := m.focus == paneCatalog
	left := m.renderTitledBox(
		fmt.Sprintf("Products (%d)", len(v.Products)),
		m.renderCatalog(v, catalogWidth-2, height-2),
		catalogWidth, height, catalogFocused,
	)
	right := m.renderTitledBox(
		fmt.Sprintf("Cart (%d)", v.ItemCount),
		m.renderCart(v, cartWidth-2, height-2),
		cartWidth, height, !catalogFocused,
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// renderCatalog renders the product list.
func (m Model) renderCatalog(v view.View, width, rows int) string {
	styles := m.theme.Styles()

	switch {
	case m.snapshot.CatalogPhase == state.Loading:
		return styles.MutedText.Render(" Loading products...")
	case v.CatalogFailed:
		return styles.DangerText.Render(" Products unavailable")
	case len(v.Products) == 0:
		return styles.MutedText.Render(" No products")
	}

	const priceWidth, qtyWidth = 10, 5
	nameWidth := maxInt(width-priceWidth-qtyWidth-2, 8)

	start, end := visibleRange(m.catalogRow, len(v.Products), rows)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		p := v.Products[i]
		inCart := ""
		if p.InCart > 0 {
			inCart = fmt.Sprintf("×%d", p.InCart)
		}
		line := " " + padRight(truncate(p.Name, nameWidth), nameWidth) +
			padLeft(p.Price, priceWidth) + padLeft(inCart, qtyWidth)
		lines = append(lines, m.renderRow(line, width, i == m.catalogRow && m.focus == paneCatalog))
	}
	return strings.Join(lines, "\n")
}

// renderCart renders the cart lines followed by the coupon and summary
// panels.
func (m Model) renderCart(v view.View, width, rows int) string {
	styles := m.theme.Styles()

	footer := m.cartFooter(v, width)
	rows = maxInt(rows-len(footer), 1)

	var lines []string
	switch {
	case m.snapshot.CartPhase == state.Loading:
		lines = append(lines, styles.MutedText.Render(" Loading cart..."))
	case v.CartFailed && m.snapshot.Cart == nil:
		lines = append(lines, styles.DangerText.Render(" Cart unavailable"))
	case v.EmptyCart:
		lines = append(lines, styles.MutedText.Render(" Your cart is empty"))
	default:
		const qtyWidth, totalWidth = 14, 10
		nameWidth := maxInt(width-qtyWidth-totalWidth-2, 8)
		start, end := visibleRange(m.cartRow, len(v.Lines), rows)
		for i := start; i < end; i++ {
			line := v.Lines[i]
			text := " " + padRight(truncate(line.Name, nameWidth), nameWidth) +
				padLeft(fmt.Sprintf("%d × %s", line.Quantity, line.Price), qtyWidth) +
				padLeft(line.Total, totalWidth)
			lines = append(lines, m.renderRow(text, width, i == m.cartRow && m.focus == paneCart))
		}
	}

	for len(lines) < rows {
		lines = append(lines, "")
	}
	return strings.Join(append(lines, footer...), "\n")
}

// cartFooter returns the coupon panel and, for a non-empty cart, the order
// summary.
func (m Model) cartFooter(v view.View, width int) []string {
	styles := m.theme.Styles()
	var out []string

	switch {
	case m.editingCoupon:
		out = append(out, " "+m.couponInput.View())
	case v.CouponApplied:
		out = append(out,
			" "+styles.SuccessText.Render("Coupon "+v.CouponCode+" applied")+
				styles.FaintText.Render("  C to remove"))
	case m.snapshot.CartPhase.Settled():
		out = append(out, styles.FaintText.Render(" c to enter a coupon code"))
	}

	if !v.ShowSummary {
		return out
	}

	discount := v.Summary.Discount
	if v.Summary.HasDiscount {
		discount = "-" + discount
	}
	labelWidth := maxInt(width-12, 10)
	summaryLine := func(label, value string, style lipgloss.Style) string {
		return style.Render(" " + padRight(label, labelWidth) + padLeft(value, 10))
	}
	out = append(out,
		styles.FaintText.Render(strings.Repeat("─", width)),
		summaryLine("Subtotal", v.Summary.Subtotal, styles.Text),
		summaryLine("Discount", discount, styles.SuccessText),
		summaryLine("Total", v.Summary.Total, styles.Text.Bold(true)),
	)
	return out
}

// renderRow highlights the selected row across the full pane width.
func (m Model) renderRow(line string, width int, selected bool) string {
	if selected {
		return m.theme.Styles().Selected.Width(width).Render(line)
	}
	return m.theme.Styles().Text.Render(line)
}

// renderNoticeBar renders the active notification, or an empty bar.
func (m Model) renderNoticeBar(v view.View) string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	if !v.HasNotice {
		return bg.FillLine("", m.width)
	}

	icon := "✓"
	if v.Notice.Severity == notify.Error {
		icon = "✗"
	}
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.NoticeColor(v.Notice.Severity))).
		Bold(true)
	content := bg.Space() + bg.Render(icon+" "+v.Notice.Message, style) +
		bg.Spaces(2) + bg.Render("esc to dismiss", styles.FaintText)
	return bg.FillLine(content, m.width)
}

// renderTitledBox draws a bordered box with the title embedded in the top
// border. content lines past the box height are dropped.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColorStr, bgColorStr := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColorStr, bgColorStr = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := maxInt(width-2, 0)
	titleLen := lipgloss.Width(title)
	leftPad := maxInt((innerWidth-titleLen-2)/2, 0)
	rightPad := maxInt(innerWidth-titleLen-2-leftPad, 0)

	top := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottom := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColorStr))
	contentLines := strings.Split(content, "\n")
	boxHeight := maxInt(height-2, 0)

	lines := make([]string, 0, boxHeight+2)
	lines = append(lines, top)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines,
			bg.Render("│", borderStyle)+contentStyle.Render(line)+bg.Render("│", borderStyle))
	}
	lines = append(lines, bottom)
	return strings.Join(lines, "\n")
}

// visibleRange returns the [start, end) window of a list of total rows that
// keeps selected on screen.
func visibleRange(selected, total, rows int) (int, int) {
	if rows <= 0 || total <= rows {
		return 0, total
	}
	start := 0
	if selected >= rows {
		start = selected - rows + 1
	}
	return start, start + rows
}
