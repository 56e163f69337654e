package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l4d2tools/addonctl/internal/addons"
)

var (
	dbPath    string
	configDir string

	// RootCmd is the root command for addonctl
	RootCmd = &cobra.Command{
		Use:   "addonctl",
		Short: "Left 4 Dead 2 workshop addon manager",
		Long: `addonctl selects which downloaded workshop addons the game loads and in
what order.

Enabled addons are copied into their own search path below the game root and
listed in gameinfo.txt in activation order. Titles are looked up from the
Steam workshop and cached locally for a week.

Quick Start:
  1. addonctl path set "/path/to/Left 4 Dead 2"
  2. addonctl list
  3. addonctl enable 123456789.vpk
  4. addonctl move 123456789.vpk up

Examples:
  # Show the game path, running flag and selection count
  addonctl status

  # Keep gameinfo.txt free of addon paths while the game runs
  addonctl running on

  # Rebuild every enabled addon's copy
  addonctl recreate

  # Follow the workshop directory for new downloads
  addonctl watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "addonctl: Left 4 Dead 2 workshop addon manager")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'addonctl status' to see the current setup.")
			fmt.Fprintln(out, "Run 'addonctl --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.config/addonctl/addonctl.db)")
	RootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default: ~/.config/addonctl)")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// resolveAddon finds the entry named by arg. arg may be a package file
// name, an addon id such as "addon3", or a 1-based position as printed by
// 'addonctl list'.
func resolveAddon(entries []addons.Entry, arg string) (addons.Entry, error) {
	for _, e := range entries {
		if e.Name == arg || e.AddonID == arg {
			return e, nil
		}
	}

	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(entries) {
		return entries[n-1], nil
	}

	return addons.Entry{}, fmt.Errorf("%s: %w", arg, addons.ErrNotFound)
}

// refreshFor runs a refresh and reports partial failures on stderr. A
// discovery failure or a missing game path is returned as an error.
func refreshFor(cmd *cobra.Command, s *session) ([]addons.Entry, error) {
	entries, err := s.manager.Refresh()
	if err == nil {
		return entries, nil
	}

	var discErr *addons.DiscoveryError
	if errors.Is(err, addons.ErrNoGamePath) || errors.As(err, &discErr) {
		return nil, err
	}

	warnPartial(cmd, err)
	return entries, nil
}

// warnPartial prints errors that did not stop an operation.
func warnPartial(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	msg := strings.ReplaceAll(err.Error(), "\n", "\n  ")
	fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", msg)
}

// dirExists reports whether path names an existing directory.
func dirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
