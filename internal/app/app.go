package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/five82/basket/internal/cart"
	"github.com/five82/basket/internal/cartapi"
	"github.com/five82/basket/internal/config"
	"github.com/five82/basket/internal/fakecart"
	"github.com/five82/basket/internal/notify"
	"github.com/five82/basket/internal/prefs"
	"github.com/five82/basket/internal/state"
	"github.com/five82/basket/internal/ui"
)

// Options configure the basket application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/basket/prefs.toml
	// Demo serves the built-in fake cart service in-process instead of
	// talking to api_url.
	Demo bool
	// DisableLogging drops all log output regardless of log_file.
	DisableLogging bool
	// Debug lowers the log level to debug.
	Debug bool
}

// components is everything Run wires together before starting the UI.
type components struct {
	log        zerolog.Logger
	controller *cart.Controller
	notices    *notify.Channel
	changes    []<-chan struct{}
	cleanup    []func() error
}

func (c *components) close() {
	for i := len(c.cleanup) - 1; i >= 0; i-- {
		_ = c.cleanup[i]()
	}
}

// Run boots the basket TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		// Preferences are cosmetic; continue with the defaults.
		userPrefs = prefs.Prefs{Theme: prefs.DefaultTheme}
	}

	parts, err := build(cfg, opts)
	if err != nil {
		return err
	}
	defer parts.close()

	parts.log.Info().
		Str("api_url", cfg.APIURL).
		Str("user_id", cfg.UserID).
		Bool("demo", opts.Demo).
		Msg("basket starting")

	startLoaders(ctx, parts.controller)

	err = ui.Run(ui.Options{
		Context:    ctx,
		Controller: parts.controller,
		Notices:    parts.notices,
		Changes:    parts.changes,
		Currency:   cfg.CurrencySymbol,
		ThemeName:  userPrefs.Theme,
		PrefsPath:  opts.PrefsPath,
		Logger:     parts.log,
	})
	parts.log.Info().Err(err).Msg("basket stopped")
	return err
}

// build opens the logger and constructs the client (or demo server), store,
// notification channel and controller.
func build(cfg config.Config, opts Options) (*components, error) {
	parts := &components{}

	logPath := cfg.LogFile
	if opts.DisableLogging {
		logPath = ""
	}
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	logger, closer, err := openLogger(logPath, level)
	if err != nil {
		return nil, err
	}
	parts.log = logger
	parts.cleanup = append(parts.cleanup, closer.Close)

	baseURL := cfg.APIURL
	if opts.Demo {
		demo, err := startDemoServer(logger.With().Str("component", "fakecart").Logger(),
			fakecart.WithLatency(demoLatency))
		if err != nil {
			parts.close()
			return nil, err
		}
		parts.cleanup = append(parts.cleanup, demo.Close)
		baseURL = demo.URL()
	}

	client, err := cartapi.NewClient(baseURL, cfg.UserID,
		cartapi.WithTimeout(cfg.RequestTimeout),
		cartapi.WithLogger(logger.With().Str("component", "cartapi").Logger()),
	)
	if err != nil {
		parts.close()
		return nil, fmt.Errorf("init cart client: %w", err)
	}

	store := &state.Store{}
	noticeChanges := make(chan struct{}, 1)
	parts.notices = notify.New(notify.OnChange(func() {
		select {
		case noticeChanges <- struct{}{}:
		default:
		}
	}))
	parts.changes = []<-chan struct{}{store.Subscribe(), noticeChanges}
	parts.controller = cart.New(client, store, parts.notices,
		cart.WithLogger(logger.With().Str("component", "cart").Logger()))
	return parts, nil
}
