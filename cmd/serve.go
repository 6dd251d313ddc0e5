package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/prepbuddy/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API for a local web front end",
	RunE: func(cmd *cobra.Command, args []string) error {
		origins, _ := cmd.Flags().GetStringArray("allow-origin")
		return withSession(cmd, func(s *session) error {
			addr := s.cfg.Server.Addr
			if a, _ := cmd.Flags().GetString("addr"); a != "" {
				addr = a
			}
			if !s.cfg.Log.Development {
				gin.SetMode(gin.ReleaseMode)
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(s.ctrl, s.logger, api.Options{AllowOrigins: origins}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				s.logger.Info("api listening", zap.String("addr", addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			s.logger.Info("shutting down api")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (defaults to server.addr)")
	serveCmd.Flags().StringArray("allow-origin", nil, "Browser origin allowed by CORS (repeatable)")
}
