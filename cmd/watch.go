// File: cmd/watch.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/usmank11/automatic-fisher/api/schemas"
	"github.com/usmank11/automatic-fisher/internal/config"
	"github.com/usmank11/automatic-fisher/internal/journal"
	"github.com/usmank11/automatic-fisher/internal/observability"
)

// newWatchCmd creates the `watch` command, a live view over the cycle
// journal of a running (or finished) session.
func newWatchCmd() *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream cycle records from the journal",
		Long: `Follows the JSONL cycle journal and prints one line per completed loop
cycle, surviving journal rotation. Useful alongside a headless run, or to
replay a finished session with --from-start.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlag("journal.path", cmd.Flags().Lookup("journal"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return fmt.Errorf("failed to apply flag overrides: %w", err)
			}
			appConfig = cfg

			fromStart, err := cmd.Flags().GetBool("from-start")
			if err != nil {
				return err
			}

			follower, err := journal.NewFollower(cfg.Journal().Path, fromStart, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			err = follower.Follow(ctx, func(rec schemas.CycleRecord) {
				fmt.Fprintln(out, formatRecord(rec))
			})
			if errors.Is(err, context.Canceled) {
				// Interrupted by the operator; a normal way to leave a tail.
				return nil
			}
			return err
		},
	}

	watchCmd.Flags().Bool("from-start", false, "replay the journal from the beginning instead of only new records")
	watchCmd.Flags().String("journal", "", "journal file to follow (defaults to journal.path)")
	return watchCmd
}

// formatRecord renders one cycle record as a single console line.
func formatRecord(rec schemas.CycleRecord) string {
	line := fmt.Sprintf("%s  seq=%-4d action=%-9s outcome=%-21s entries=%d->%d latency=%dms",
		rec.Timestamp.Local().Format("15:04:05"),
		rec.Seq,
		rec.Action,
		rec.Outcome,
		rec.EntriesBefore,
		rec.EntriesAfter,
		rec.LatencyMS,
	)
	if !rec.Settled {
		line += "  UNSETTLED"
	}
	if rec.ChallengeKind != "" {
		line += "  challenge=" + string(rec.ChallengeKind)
	}
	if rec.Terminal {
		line += "  TERMINAL"
		if rec.Note != "" {
			line += ": " + rec.Note
		}
	}
	return line
}
