package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/basket/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional, defaults to ~/.config/basket/config.toml)")
	demo := flag.Bool("demo", false, "serve the built-in fake cart service instead of api_url")
	logEnabled := flag.Bool("log", true, "write logs to log_file")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath:     *configPath,
		Demo:           *demo,
		DisableLogging: !*logEnabled,
		Debug:          *debug,
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "basket: %v\n", err)
		return 1
	}
	return 0
}
