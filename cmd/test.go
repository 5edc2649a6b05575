package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/throttlarr/throttlarr/jellyfin"
	"github.com/throttlarr/throttlarr/qbittorrent"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connections to qBittorrent and Jellyfin",
	Long:  `Verify that both configured services are reachable and accept the configured credentials, then exit.`,
	RunE:  runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx := context.Background()

	fmt.Printf("Testing connection to qBittorrent at %s...\n", cfg.Qbittorrent.URL)

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

	if _, err := qbClient.Login(ctx); err != nil {
		return fmt.Errorf("qBittorrent login failed: %w", err)
	}
	fmt.Println("✓ qBittorrent login successful!")

	fmt.Printf("\nTesting connection to Jellyfin at %s...\n", cfg.Jellyfin.URL)

	jfClient, err := jellyfin.NewClient(
		cfg.Jellyfin.URL,
		cfg.Jellyfin.APIToken,
		cfg.Jellyfin.ActiveWithinSeconds,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create Jellyfin client: %w", err)
	}

	count, err := jfClient.CountActiveSessions(ctx)
	if err != nil {
		return fmt.Errorf("jellyfin session sample failed: %w", err)
	}
	fmt.Println("✓ Jellyfin connection successful!")
	fmt.Printf("- Active sessions right now: %d\n", count)
	fmt.Printf("- Active window: %ds\n", cfg.Jellyfin.ActiveWithinSeconds)
	fmt.Printf("- Poll interval: %ds\n", cfg.Poll.IntervalSeconds)
	fmt.Printf("- Throttled upload limit: %d bytes/s\n", cfg.Qbittorrent.UploadLimit)

	return nil
}
