// Package config loads basket's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/basket/config.toml
//  3. If the file doesn't exist, use defaults
//  4. If the file exists but a field is missing or blank, use that field's default
//
// # TOML Format
//
//	api_url = "127.0.0.1:3000"
//	user_id = "demo-user"
//	currency_symbol = "$"
//	log_file = "~/.local/state/basket/basket.log"
//	request_timeout_seconds = 0
//
// All fields are optional. log_file = "" disables logging. A timeout of zero
// means requests are never cut short. Tilde expansion is performed for the
// config path and log_file.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, malformed TOML and negative timeouts. A missing file is not
// an error.
package config
