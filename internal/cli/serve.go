package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/blurtapp/blurt/internal/server"
	"github.com/blurtapp/blurt/pkg/buildinfo"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sessions, templates and exports over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			if listen == "" {
				listen = c.cfg.Server.Listen
			}
			srv := server.New(server.Options{
				Repo:         ws.repo,
				Logger:       loggerFromContext(ctx),
				DefaultWidth: c.cfg.Board.CanvasWidth,
			})
			printInfo("blurt %s serving on %s", buildinfo.Version, StyleHighlight.Render("http://"+listen))
			if err := srv.ListenAndServe(ctx, listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, 127.0.0.1:8787)")
	return cmd
}

// versionCommand creates the version command.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(buildinfo.String())
		},
	}
}
