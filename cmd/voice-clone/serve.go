package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/voice-clone/internal/httpapi"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web studio and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if listenAddr != "" {
				a.cfg.Server.ListenAddr = listenAddr
			}

			return serve(ctx, a)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "Override server.listen_addr")

	return cmd
}

func serve(ctx context.Context, a *app) error {
	gin.SetMode(gin.ReleaseMode)

	router := httpapi.NewRouter(httpapi.Dependencies{
		Service:            a.service,
		Blobs:              a.blobs,
		Metrics:            a.metrics,
		Log:                a.log,
		MaxMultipartMemory: a.cfg.Server.MaxMultipartMemory,
	})

	server := &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		a.log.System("Voice clone studio listening on %s", a.cfg.Server.ListenAddr)

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}

		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	a.log.System("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
