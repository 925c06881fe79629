package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tubepost/internal/pipeline"
	"tubepost/internal/server"
	"tubepost/internal/storage"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "listen address (overrides config)")
}

// serverGenerator adapts the pipeline for the HTTP surface: every request
// gets automatic recovery plus the single retry.
type serverGenerator struct {
	gen *pipeline.Generator
	rec pipeline.RecoveryRunner
}

func (s *serverGenerator) Generate(ctx context.Context, url string) (*pipeline.Result, error) {
	return s.gen.GenerateWithRecovery(ctx, url, s.rec)
}

func runServe(ctx context.Context) error {
	a := newApp(true)
	a.log = zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()

	if _, err := a.provisionCookies(ctx); err != nil {
		a.log.Warn().Err(err).Msg("cookie provisioning failed, continuing without cookies")
	}

	gen, err := a.generator()
	if err != nil {
		return err
	}

	posts, err := storage.Open(a.postsDBPath())
	if err != nil {
		return fmt.Errorf("open posts database: %w", err)
	}
	defer posts.Close()

	flow := a.recoveryFlow()
	srv := server.New(
		&serverGenerator{gen: gen, rec: flow},
		flow,
		posts,
		func() gin.H { return gin.H(a.diagnostics()) },
		a.log,
	)

	listen := a.cfg.Listen
	if serveListen != "" {
		listen = serveListen
	}
	return srv.Run(listen)
}
