// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/usmank11/automatic-fisher/api/schemas"
	"github.com/usmank11/automatic-fisher/internal/browser"
	"github.com/usmank11/automatic-fisher/internal/config"
	"github.com/usmank11/automatic-fisher/internal/fisher"
	"github.com/usmank11/automatic-fisher/internal/journal"
	"github.com/usmank11/automatic-fisher/internal/observability"
)

// shutdownGrace bounds how long a finished run waits for the browser to
// close down before abandoning it.
const shutdownGrace = 15 * time.Second

// newRunCmd creates and configures the `run` command, which hosts the
// control loop for one session.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the fishing control loop",
		Long: `Opens the configured channel in a browser tab and cycles: /fish, wait for
the reply burst to settle, classify it, act. The first interrupt finishes
the in-flight cycle and stops cleanly; a second interrupt aborts at once.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their viper keys so command-line values override
			// the config file and environment with the right precedence.
			if err := viper.BindPFlag("browser.channel_url", cmd.Flags().Lookup("channel-url")); err != nil {
				return err
			}
			if err := viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			if err := viper.BindPFlag("loop.cooldown_seconds", cmd.Flags().Lookup("cooldown")); err != nil {
				return err
			}
			return viper.BindPFlag("loop.replenish_resource", cmd.Flags().Lookup("resource"))
		},
		RunE: runLoop,
	}

	runCmd.Flags().String("channel-url", "", "URL of the channel hosting the bot timeline (required)")
	runCmd.Flags().Bool("headless", false, "run the browser headless (requires a previously seeded login profile)")
	runCmd.Flags().Float64("cooldown", 3.5, "minimum seconds between primary commands")
	runCmd.Flags().String("resource", "worms", "bait resource bought in bulk after a sell-off")
	return runCmd
}

func runLoop(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	// Re-resolve the config now that the run flags are bound.
	cfg, err := config.NewConfigFromViper(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to apply flag overrides: %w", err)
	}
	appConfig = cfg

	if strings.TrimSpace(cfg.Browser().ChannelURL) == "" {
		return errors.New("a channel URL is required (--channel-url or browser.channel_url)")
	}

	recorder, err := buildRecorder(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if recorder != nil {
		defer func() {
			if err := recorder.Close(); err != nil {
				logger.Warn("Failed to close journal", zap.Error(err))
			}
		}()
	}

	manager, err := browser.NewManager(ctx, cfg.Browser(), logger)
	if err != nil {
		return fmt.Errorf("starting browser: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Browser shutdown reported an error", zap.Error(err))
		}
	}()

	timeline, err := manager.OpenTimeline(ctx)
	if err != nil {
		return fmt.Errorf("opening timeline: %w", err)
	}
	defer timeline.Close()

	var opts []fisher.Option
	if recorder != nil {
		opts = append(opts, fisher.WithRecorder(recorder))
	}
	loop, err := fisher.New(cfg.Loop(), logger, timeline, opts...)
	if err != nil {
		return fmt.Errorf("building control loop: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(loopCtx)
	g.Go(func() error {
		// Cancel on any exit, not just failure, so the signal watcher
		// below is released when the loop stops cleanly.
		defer cancel()
		return loop.Run(gctx)
	})
	g.Go(func() error {
		// First signal: cooperative stop after the in-flight cycle.
		// Second signal: hard cancel.
		sigCh := make(chan os.Signal, 2)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-gctx.Done():
			return nil
		case sig := <-sigCh:
			logger.Info("Signal received; stopping after the current cycle.", zap.String("signal", sig.String()))
			loop.Stop()
		}
		select {
		case <-gctx.Done():
			return nil
		case sig := <-sigCh:
			logger.Warn("Second signal received; aborting immediately.", zap.String("signal", sig.String()))
			cancel()
			return nil
		}
	})

	err = g.Wait()
	switch {
	case err == nil:
		logger.Info("Control loop stopped cleanly.")
		return nil
	case errors.Is(err, fisher.ErrImageChallenge):
		// An expected terminal condition, not a crash: the bot posed a
		// challenge no automation can answer.
		logger.Error("Stopped on an image challenge; resolve it manually before restarting.")
		return err
	case errors.Is(err, context.Canceled):
		logger.Warn("Control loop aborted.")
		return err
	default:
		return fmt.Errorf("control loop failed: %w", err)
	}
}

// buildRecorder assembles the journal sinks: the JSONL file always, plus
// the Postgres store when a DSN is configured. Returns nil when the
// journal is disabled.
func buildRecorder(ctx context.Context, cfg *config.Config, logger *zap.Logger) (schemas.Recorder, error) {
	jcfg := cfg.Journal()
	if !jcfg.Enabled {
		return nil, nil
	}

	writer, err := journal.NewWriter(jcfg.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if jcfg.PostgresDSN == "" {
		return writer, nil
	}

	pool, err := pgxpool.New(ctx, jcfg.PostgresDSN)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("connecting to journal database: %w", err)
	}
	store, err := journal.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		writer.Close()
		return nil, fmt.Errorf("preparing journal database: %w", err)
	}
	return journal.NewTee(writer, store), nil
}
