package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/SBrookhart/side-quest-generator/internal/ai"
	"github.com/SBrookhart/side-quest-generator/internal/logging"
	"github.com/SBrookhart/side-quest-generator/internal/server"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored quests over HTTP",
	Long: `Serve a JSON API over the stored quests:

  GET  /api/quests?date=YYYY-MM-DD   one day (default today)
  GET  /api/quests/latest            the most recent day
  POST /api/quests/generate          run generate; needs the shared secret
  GET  /healthz

The generate endpoint is enabled only when a secret is configured
(server.secret or SIDEQUEST_SECRET) and AI is configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ctx, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := logging.From(ctx)

		addr := cfg.Server.Addr
		if flagServeAddr != "" {
			addr = flagServeAddr
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		var runner server.Runner
		secret := cfg.ServerSecret()
		if secret != "" {
			p, cleanup, err := buildPipeline(ctx, cfg, st, "")
			switch {
			case errors.Is(err, ai.ErrNotConfigured):
				log.Warn("generation endpoint disabled", "reason", err)
			case err != nil:
				return err
			default:
				defer cleanup()
				runner = p
			}
		} else {
			log.Info("no server secret set, generation endpoint disabled")
		}

		srv := server.New(st, runner, server.Options{
			Addr:   addr,
			Secret: secret,
			Today:  cfg.Today,
			Logger: log,
		})
		return server.Run(ctx, srv)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "listen address (default from config, :8080)")
}
