package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/xoso-draws/internal/api"
	"github.com/pfrederiksen/xoso-draws/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored records, views and statistics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.setup(cmd, map[string]string{"addr": "server.addr"})
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.pipeline(false, false)
			if err != nil {
				return err
			}

			if !o.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := &http.Server{
				Addr:              e.cfg.Server.Addr,
				Handler:           api.NewRouter(api.NewHandler(p, e.loc, e.log)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			errc := make(chan error, 1)
			go func() {
				e.log.Info("Listening", logger.Fields{"addr": srv.Addr, "data_dir": e.dataDir})
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serving: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
			defer done()
			e.log.Info("Shutting down", nil)
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("addr", ":8080", "Listen address")
	return cmd
}
