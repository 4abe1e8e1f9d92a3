package cmd

import (
	"context"
	"fmt"

	"nursery-sync/core/config"
	"nursery-sync/core/database"
	"nursery-sync/core/logger"
	"nursery-sync/feature/events"
	"nursery-sync/feature/events/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var showPairs int

// reconcileCmd prints the current matched-pair report from the CLI.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Print the reconciliation report",
	Long: `Builds the matched-pair view from the stored events and prints a
summary: matched pairs, source-only rows awaiting sync, and target-only rows.

Examples:
  # Summary plus the 20 most recent pairs
  nursery-sync reconcile

  # Show more rows
  nursery-sync reconcile --show 50`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().IntVar(&showPairs, "show", 20, "Number of pair rows to print")
	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := models.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	svc := events.NewService(db, l, nil, cfg.Reconcile)
	pairs, err := svc.Pairs(ctx)
	if err != nil {
		return fmt.Errorf("failed to build matched pairs: %w", err)
	}

	var matched, sourceOnly, targetOnly, ignored int
	for _, p := range pairs {
		switch {
		case p.IsMatched():
			matched++
		case p.IsSourceOnly():
			sourceOnly++
			if p.Source.Ignored {
				ignored++
			}
		default:
			targetOnly++
		}
	}

	l.Info("Reconciliation report",
		zap.Int("pairs", len(pairs)),
		zap.Int("matched", matched),
		zap.Int("source_only", sourceOnly),
		zap.Int("ignored", ignored),
		zap.Int("target_only", targetOnly),
	)

	max := showPairs
	if max > len(pairs) {
		max = len(pairs)
	}
	for i := 0; i < max; i++ {
		p := pairs[i]
		ev := p.Source
		state := "matched"
		switch {
		case p.IsSourceOnly():
			state = "source-only"
		case ev == nil:
			state = "target-only"
			ev = p.Target
		}
		l.Info("Pair",
			zap.String("state", state),
			zap.String("day", ev.Day),
			zap.String("child", ev.ChildName),
			zap.String("type", ev.EventType),
			zap.Time("time", p.EffectiveTime()),
			zap.Bool("duplicate", p.Duplicate),
		)
	}
	if len(pairs) > max {
		l.Info("Additional pairs not shown", zap.Int("count", len(pairs)-max))
	}
	return nil
}
