package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/basket/internal/cart"
	"github.com/five82/basket/internal/notify"
	"github.com/five82/basket/internal/prefs"
	"github.com/five82/basket/internal/state"
	"github.com/five82/basket/internal/view"
)

// pane identifies the focused column.
type pane int

const (
	paneCatalog pane = iota
	paneCart
)

// Options configures the UI. Each channel in Changes is signalled when the
// store or the notification channel changes, and each signal redraws the
// model from fresh state.
type Options struct {
	Context    context.Context
	Controller *cart.Controller
	Notices    *notify.Channel
	Changes    []<-chan struct{}
	ClockTick  time.Duration
	Currency   string
	ThemeName  string
	PrefsPath  string
	Logger     zerolog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	controller *cart.Controller
	notices    *notify.Channel
	changes    []<-chan struct{}
	prefsPath  string
	clockTick  time.Duration
	currency   string
	log        zerolog.Logger
	keys       keyMap

	// UI state
	theme    Theme
	width    int
	height   int
	ready    bool
	focus    pane
	showHelp bool

	// Selection
	catalogRow int
	cartRow    int

	// Coupon entry
	couponInput   textinput.Model
	editingCoupon bool

	// Data state
	snapshot state.State
	notice   *notify.Notification
	now      time.Time

	// pending is set when a mutation command has been issued and cleared
	// when its result arrives.
	pending bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	clockTick := opts.ClockTick
	if clockTick <= 0 {
		clockTick = DefaultClockInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.DefaultTheme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	input := textinput.New()
	input.Placeholder = "Coupon code"
	input.Prompt = "> "
	input.CharLimit = CouponCharLimit

	return Model{
		ctx:         ctx,
		controller:  opts.Controller,
		notices:     opts.Notices,
		changes:     opts.Changes,
		prefsPath:   prefsPath,
		clockTick:   clockTick,
		currency:    opts.Currency,
		log:         opts.Logger,
		keys:        defaultKeyMap(),
		theme:       GetTheme(themeName),
		focus:       paneCatalog,
		couponInput: input,
		snapshot:    state.State{CatalogPhase: state.Loading, CartPhase: state.Loading},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		fetchSnapshotCmd(m.controller, m.notices),
		tickCmd(m.clockTick),
	}
	for _, ch := range m.changes {
		cmds = append(cmds, waitForChangeCmd(m.ctx, ch))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd(m.clockTick)

	case changeMsg:
		return m, tea.Batch(
			fetchSnapshotCmd(m.controller, m.notices),
			waitForChangeCmd(m.ctx, msg.source),
		)

	case snapshotMsg:
		m.snapshot = msg.state
		m.notice = msg.notice
		m.clampSelection()
		return m, nil

	case mutationDoneMsg:
		m.pending = false
		if msg.err != nil {
			m.log.Debug().Err(msg.err).Stringer("op", msg.op).Msg("ui mutation finished with error")
		}
		return m, fetchSnapshotCmd(m.controller, m.notices)
	}

	if m.editingCoupon {
		var cmd tea.Cmd
		m.couponInput, cmd = m.couponInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// projection derives the current frame from the last snapshot.
func (m Model) projection() view.View {
	return view.Project(m.snapshot, m.notice, m.currency)
}

// clampSelection keeps both cursors inside their lists.
func (m *Model) clampSelection() {
	m.catalogRow = clampIndex(m.catalogRow, len(m.snapshot.Catalog))
	items := 0
	if m.snapshot.Cart != nil {
		items = len(m.snapshot.Cart.Items)
	}
	m.cartRow = clampIndex(m.cartRow, items)
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Messages

type tickMsg time.Time

// changeMsg reports a signal on source. Handling it re-arms the wait.
type changeMsg struct {
	source <-chan struct{}
}

type snapshotMsg struct {
	state  state.State
	notice *notify.Notification
}

type mutationDoneMsg struct {
	op  state.Op
	err error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChangeCmd blocks until ch is signalled. It yields nothing once ctx
// is done or ch is closed, which ends the wait loop.
func waitForChangeCmd(ctx context.Context, ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			return changeMsg{source: ch}
		}
	}
}

func fetchSnapshotCmd(controller *cart.Controller, notices *notify.Channel) tea.Cmd {
	return func() tea.Msg {
		msg := snapshotMsg{state: controller.State()}
		if notices != nil {
			if n, ok := notices.Current(); ok {
				msg.notice = &n
			}
		}
		return msg
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	if _, err := p.Run(); err != nil {
		if m.ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
