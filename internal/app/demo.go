package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/basket/internal/fakecart"
)

// demoLatency makes the in-flight state visible in demo mode.
const demoLatency = 300 * time.Millisecond

// demoServer is an in-process fakecart bound to a loopback port.
type demoServer struct {
	srv *http.Server
	url string
}

// startDemoServer serves fakecart on 127.0.0.1 with a random port until
// Close is called.
func startDemoServer(log zerolog.Logger, opts ...fakecart.Option) (*demoServer, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen demo server: %w", err)
	}

	opts = append([]fakecart.Option{fakecart.WithLogger(log)}, opts...)
	srv := &http.Server{
		Handler:           fakecart.New(opts...).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("demo server stopped")
		}
	}()

	d := &demoServer{srv: srv, url: "http://" + ln.Addr().String()}
	log.Info().Str("url", d.url).Msg("demo server listening")
	return d, nil
}

// URL returns the server's base URL.
func (d *demoServer) URL() string {
	return d.url
}

// Close shuts the server down, waiting briefly for open requests.
func (d *demoServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return d.srv.Shutdown(ctx)
}
