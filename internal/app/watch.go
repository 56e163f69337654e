package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/l4d2tools/addonctl/internal/addons"
	"github.com/l4d2tools/addonctl/internal/watcher"
)

var (
	watchDebounce time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Rescan the workshop directory whenever it changes",
		Long: `Follow the workshop directory and rescan it after packages are added,
replaced or removed.

Each rescan reconciles the activation order and rewrites gameinfo.txt, so
new downloads appear at the end of the order and removed packages are
dropped. Changes are batched until the directory has been quiet for the
debounce period. Press Ctrl+C to stop.`,
		Example: `  # Watch with the default debounce
  addonctl watch

  # Wait ten seconds of quiet before rescanning
  addonctl watch --debounce 10s`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before a rescan")

	// Register with root command
	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := refreshFor(cmd, s); err != nil {
		return err
	}

	refresh := func() error {
		entries, err := s.manager.Refresh()
		if err != nil {
			return err
		}
		s.log.Info("Workshop directory rescanned",
			slog.Int("addons", len(entries)),
			slog.Int("enabled", addons.EnabledCount(entries)))
		return nil
	}

	w, err := watcher.New(s.manager.SourceDir(), refresh, s.log)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.SetDebounce(watchDebounce)

	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", s.manager.SourceDir())
	<-ctx.Done()

	fmt.Fprintln(cmd.OutOrStdout(), "\nStopping watcher...")
	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	return nil
}
