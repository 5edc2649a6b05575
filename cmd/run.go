package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/throttlarr/throttlarr/jellyfin"
	"github.com/throttlarr/throttlarr/qbittorrent"
	"github.com/throttlarr/throttlarr/throttle"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the throttling loop",
	Long: `Run the control loop: authenticate with qBittorrent, then poll Jellyfin
for active playback sessions on the configured interval and apply the
matching upload limit. Runs until interrupted or a fatal failure.`,
	RunE: runLoop,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runLoop(cmd *cobra.Command, args []string) error {
	// Errors are already printed by Execute; keep cobra from repeating
	// usage text on runtime failures.
	cmd.SilenceUsage = true

	qbClient, err := qbittorrent.NewClient(
		cfg.Qbittorrent.URL,
		cfg.Qbittorrent.Username,
		cfg.Qbittorrent.Password,
		logger,
		qbittorrent.WithUserAgent("throttlarr/"+version),
	)
	if err != nil {
		return fmt.Errorf("failed to create qBittorrent client: %w", err)
	}

	jfClient, err := jellyfin.NewClient(
		cfg.Jellyfin.URL,
		cfg.Jellyfin.APIToken,
		cfg.Jellyfin.ActiveWithinSeconds,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create Jellyfin client: %w", err)
	}

	controller := throttle.New(qbClient, jfClient, logger, throttle.Options{
		PollInterval:       cfg.Poll.Interval(),
		UploadLimit:        cfg.Qbittorrent.UploadLimit,
		SampleFailureLimit: cfg.Jellyfin.SampleFailureLimit,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("qbittorrent", cfg.Qbittorrent.URL).
		Str("jellyfin", cfg.Jellyfin.URL).
		Dur("interval", cfg.Poll.Interval()).
		Int64("upload_limit", cfg.Qbittorrent.UploadLimit).
		Msg("Starting throttlarr")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return controller.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("control loop failed: %w", err)
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}
