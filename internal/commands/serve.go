package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/bankflow/internal/api"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sync, verify and record queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer e.Close()

			gin.SetMode(gin.ReleaseMode)
			srv := &http.Server{
				Addr:              v.GetString(keyAPIAddr),
				Handler:           api.NewRouter(e.session, e.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(cmd.Context(), srv, e)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	_ = v.BindPFlag(keyAPIAddr, cmd.Flags().Lookup("addr"))

	return cmd
}

func serve(ctx context.Context, srv *http.Server, e *env) error {
	errCh := make(chan error, 1)
	go func() {
		e.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}
