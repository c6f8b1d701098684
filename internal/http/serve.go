package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"lead_pipeline_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// Serve runs srv on ln until ctx is cancelled or the server fails, then
// drains in-flight requests within shutdownTimeout. beforeShutdown runs
// first; long-lived streams must be released there or Shutdown waits on them.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, log *logger.Logger, shutdownTimeout time.Duration, beforeShutdown func()) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			log.Info("shutdown signal received, gracefully shutting down")
		}
		if beforeShutdown != nil {
			beforeShutdown()
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
