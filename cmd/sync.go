package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"nursery-sync/core/config"
	"nursery-sync/core/database"
	"nursery-sync/core/logger"
	"nursery-sync/feature/events"
	"nursery-sync/feature/events/models"
	"nursery-sync/feature/sync"
	"nursery-sync/feature/sync/client"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncDryRun  bool
	syncConfirm bool
	scrapeDays  int
)

// syncCmd resolves the missing set and creates the target entries.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync missing entries to the target",
	Long: `Resolves the missing set (source events with no target counterpart)
and creates each one in the target system, recording a durable marker so
reruns never create an entry twice.

Examples:
  # List what would be synced
  nursery-sync sync --dry-run

  # Sync with interactive confirmation
  nursery-sync sync

  # Sync without prompting
  nursery-sync sync --yes`,
	RunE: runSync,
}

// scrapeCmd refreshes one service's stored events from its platform.
var scrapeCmd = &cobra.Command{
	Use:   "scrape [source|target]",
	Short: "Scrape one service and replace its stored events",
	Args:  cobra.ExactArgs(1),
	RunE:  runScrape,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Report the missing set without creating entries")
	syncCmd.Flags().BoolVar(&syncConfirm, "yes", false, "Skip the confirmation prompt")
	scrapeCmd.Flags().IntVar(&scrapeDays, "days-back", 7, "How many previous days to scrape")
	RootCmd.AddCommand(syncCmd)
	RootCmd.AddCommand(scrapeCmd)
}

func buildSyncService(cfg *config.Config, l *zap.Logger) (*sync.Service, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	eventSvc := events.NewService(db, l, nil, cfg.Reconcile)
	return sync.NewService(
		eventSvc,
		l,
		sync.NewTracker(db),
		sync.NewRunner(),
		client.NewBridgeClient(cfg.Source),
		client.NewBridgeClient(cfg.Target),
	), nil
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	svc, err := buildSyncService(cfg, l)
	if err != nil {
		return err
	}

	ids, err := svc.MissingEventIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve missing set: %w", err)
	}
	l.Info("Missing set resolved", zap.Int("count", len(ids)))

	if len(ids) == 0 || syncDryRun {
		if syncDryRun {
			l.Info("Dry-run mode: No entries were created.")
		}
		return nil
	}

	if !confirmSync(len(ids)) {
		l.Warn("Operation cancelled by user. No entries were created.")
		return nil
	}

	result, err := svc.Sync(ctx, ids)
	if err != nil {
		return fmt.Errorf("sync run failed: %w", err)
	}
	l.Info("Sync run completed",
		zap.Int("synced", len(result.SyncedEventIDs)),
		zap.Int("failed", len(result.FailedEventIDs)),
	)
	return nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service := args[0]
	if service != models.SystemSource && service != models.SystemTarget {
		return fmt.Errorf("service must be 'source' or 'target', got %q", service)
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	svc, err := buildSyncService(cfg, l)
	if err != nil {
		return err
	}

	stored, err := svc.ScrapeAndStore(ctx, service, scrapeDays)
	if err != nil {
		return err
	}
	l.Info("Scrape completed", zap.String("service", service), zap.Int("stored", stored))
	return nil
}

// confirmSync prompts before writing to the target, or honours --yes.
func confirmSync(count int) bool {
	if syncConfirm {
		return true
	}

	fmt.Printf("\nAbout to create %d entries in the target. Type 'yes' to continue: ", count)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
