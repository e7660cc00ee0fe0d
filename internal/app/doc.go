// Package app is the composition root for basket.
//
// Run loads configuration and preferences, opens the log file, builds the
// cart client (or an in-process fake server in demo mode), the state store,
// the notification channel and the cart controller, starts the loaders in
// the background and then hands the terminal to the UI.
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()        Read ~/.config/basket/config.toml
//	       ├─────> prefs.Load()         Theme
//	       ├─────> openLogger()         zerolog JSON to log_file
//	       ├─────> startDemoServer()    fakecart on 127.0.0.1:0 (demo only)
//	       ├─────> cartapi.NewClient()  HTTP client for api_url
//	       ├─────> cart.New()           Store + notifications + controller
//	       ├─────> startLoaders()       Catalog and cart, concurrently
//	       └─────> ui.Run()             Blocks until quit or cancel
//
// Only configuration and wiring errors are returned from Run. Failures while
// loading or mutating the cart are shown to the user and logged.
package app
