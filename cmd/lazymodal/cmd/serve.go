package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm/lazymodal"
)

// NewServeCommand creates the serve command, which serves the built-in
// modal assets. Pass a directory to serve other assets instead.
func NewServeCommand() *cobra.Command {
	var (
		addr    string
		prefix  string
		dir     string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the modal assets",
		Long: `Serve the modal chrome (lazy-modal.css, aria-busy.css, close-button.html)
under a path prefix, so pages can point their base address at it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), verbose)
			opts := []lazymodal.Option{lazymodal.WithLogger(logger)}
			if dir != "" {
				opts = append(opts, lazymodal.WithAssets(os.DirFS(dir)))
			}
			reg := lazymodal.NewRegistry(opts...)

			prefix = "/" + strings.Trim(prefix, "/")
			mux := http.NewServeMux()
			mux.Handle(prefix+"/", http.StripPrefix(prefix, reg.Handler()))
			srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			logger.Info("serving modal assets", "addr", addr, "prefix", prefix)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&prefix, "prefix", "/_lm", "path prefix to serve under")
	cmd.Flags().StringVar(&dir, "dir", "", "serve assets from this directory instead of the built-in ones")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every step")

	return cmd
}
