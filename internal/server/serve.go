package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Run starts the HTTP server and blocks until it stops. On SIGINT or SIGTERM
// the server drains in-flight requests for up to shutdownTimeout before the
// registered shutdown hooks execute.
func Run(server *http.Server, shutdownTimeout time.Duration, hooks *ShutdownHooks) error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		// listener failed before any shutdown signal
		return err
	case <-notifyCtx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn().Err(err).Msg("server shutdown incomplete")
	}

	if hooks != nil {
		hooks.Execute(shutdownCtx)
	}

	return err
}
