package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appLog "sched2ics/internal/log"
	"sched2ics/internal/refresh"
	"sched2ics/internal/source"
	"sched2ics/internal/web"
)

func newServeCmd(root *rootFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion API and publish configured sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if root.configPath == "" {
				root.configPath = "/etc/sched2ics/config.yaml"
			}
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			appLog.Info("effective config",
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"refresh", cfg.RefreshCron,
				"sources", len(cfg.Sources),
				"basic_auth", cfg.BasicAuth != nil,
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			conv := newConverter(cfg)
			store := refresh.NewStore()

			if len(cfg.Sources) > 0 {
				sources := make([]source.Source, 0, len(cfg.Sources))
				for _, s := range cfg.Sources {
					sources = append(sources, source.Source{ID: s.ID, Name: s.Name, URL: s.URL})
				}
				sched, err := refresh.New(cfg.RefreshCron, source.NewFetcher(cfg.CacheDir, nil), conv, sources, store)
				if err != nil {
					return err
				}
				sched.Start(ctx)
			}

			err = web.NewServer(cfg, conv, store).ListenAndServe(ctx)
			appLog.Info("sched2ics exiting")
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	return cmd
}
