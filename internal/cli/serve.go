package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mimi-cli/internal/api"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the store over HTTP/JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			listenAddr := app.cfg.API.Addr
			srv := &http.Server{
				Addr:              listenAddr,
				Handler:           api.NewServer(ws, app.log).Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			app.log.Info().Str("addr", listenAddr).Msg("serving")
			cmd.PrintErrln("mimi api listening on http://" + listenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config api.addr)")
	return cmd
}
