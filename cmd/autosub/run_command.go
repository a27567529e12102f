package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"autosub/internal/asr"
	"autosub/internal/logging"
	"autosub/internal/media"
	"autosub/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string
	var srtPath string

	cmd := &cobra.Command{
		Use:   "run <item-id>",
		Short: "Transcribe an item and print its SRT subtitles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID := strings.TrimSpace(args[0])
			if itemID == "" {
				return fmt.Errorf("item id is required")
			}

			store, cfg, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			var source media.Source
			if manifestPath != "" {
				source, err = media.LoadManifest(manifestPath)
				if err != nil {
					return err
				}
			}

			client, err := asr.New(asr.CredentialsFromConfig(cfg), asr.WithLogger(logger))
			if err != nil {
				return err
			}

			fetcher := media.NewFetcher(cfg, media.WithFetchLogger(logger))
			runner := pipeline.NewRunner(cfg, store, client, fetcher, logger)

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srt, err := runner.Run(runCtx, itemID, source)
			if err != nil {
				logger.Error("pipeline run failed",
					logging.String(logging.FieldItemID, itemID),
					logging.Error(err))
				return err
			}

			if srtPath != "" {
				if err := os.WriteFile(srtPath, []byte(srt), 0o644); err != nil {
					return fmt.Errorf("write subtitle file %q: %w", srtPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote subtitles to %s\n", srtPath)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), srt)
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Path to a playinfo-style DASH manifest (required when audio is not cached)")
	cmd.Flags().StringVarP(&srtPath, "srt", "o", "", "Write the SRT output to this file instead of stdout")
	return cmd
}
