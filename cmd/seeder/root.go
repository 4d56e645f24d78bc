package main

import (
	"fmt"
	"io"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/unclebandit/ad-scheduler/internal/app"
	"github.com/unclebandit/ad-scheduler/internal/config"
	"github.com/unclebandit/ad-scheduler/internal/extract"
	"github.com/unclebandit/ad-scheduler/internal/logging"
	"github.com/unclebandit/ad-scheduler/internal/queue"
	"github.com/unclebandit/ad-scheduler/internal/service"
)

func newRootCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "seeder <file>...",
		Short: "Schedule campaigns from JSON seed files or schedule documents",
		Long: "Each file is ingested in order. JSON files hold a list of {name, start_date, end_date} " +
			"objects; any other file is read by the model the same way an upload is.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				log.Println("No .env file found, relying on OS environment variables")
			}
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.App.LogLevel, cfg.App.IsDevelopment())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			store, err := app.OpenStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			campaigns := store.Campaigns
			var events queue.Queue
			if dryRun {
				if campaigns, err = snapshot(ctx, store.Campaigns); err != nil {
					return err
				}
				logger.Info("dry run: nothing will be stored")
			} else {
				ev, err := app.NewEvents(cfg, logger)
				if err != nil {
					return err
				}
				defer ev.Close()
				events = ev.Queue
			}

			generator, err := app.NewGenerator(cfg)
			if err != nil {
				return err
			}
			s := &seeder{
				Service:   service.NewCampaignService(campaigns, events, logger),
				Extractor: extract.NewExtractor(generator, logger),
				Logger:    logger.Named("seeder"),
			}
			for _, path := range args {
				result, err := s.seedFile(ctx, path)
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), path, result)
			}
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "Dry run complete. No campaigns were stored.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Campaign seeding completed.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "check files against the current schedule without storing anything")
	return cmd
}

func printResult(w io.Writer, path string, result service.BatchResult) {
	fmt.Fprintf(w, "Seeded: %s (%d accepted, %d rejected)\n", path, len(result.Accepted), len(result.Rejected))
	for _, c := range result.Accepted {
		fmt.Fprintf(w, "  + %s\n", service.Describe(&c))
	}
	for _, r := range result.Rejected {
		fmt.Fprintf(w, "  - %s [%s] %s\n", r.Name, r.Code, r.Reason)
	}
}
