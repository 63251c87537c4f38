package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/hupe1980/campaignmesh/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the workflow over HTTP",
	Long: `Serve exposes the workflow over HTTP. Routes are available at the root and
under the configured base path (default /api):

  POST /chat            {"message": "..."} -> {"response": "..."}
  POST /reset           start a new conversation
  GET  /get-contexts    id -> title index of stored conversations
  POST /load-context    ?id=<session id> -> {"chat_history": [...]}
  GET  /                liveness`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.runner, func(o *server.Options) {
		o.BasePath = cfg.Server.BasePath
		o.AllowOrigins = cfg.Server.AllowOrigins
		o.Logger = a.logger.WithComponent("server")
	})

	cmd.Printf("%s listening on %s (session %s)\n", color.GreenString("campaignmesh"), cfg.Server.Addr, a.runner.SessionID())

	return srv.Run(ctx, cfg.Server.Addr)
}
