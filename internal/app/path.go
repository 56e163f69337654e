package app

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	pathCmd = &cobra.Command{
		Use:   "path",
		Short: "Manage the game install path",
		Long: `Show, set or clear the Left 4 Dead 2 install directory.

The game path is the directory that contains the left4dead2 content folder.
Workshop packages are read from left4dead2/addons/workshop below it, and
enabled addons are copied into their own directories next to it.

Clearing the path also forgets the activation order.`,
		Example: `  # Set the game path and scan for addons
  addonctl path set "$HOME/.steam/steam/steamapps/common/Left 4 Dead 2"

  # Show the current game path
  addonctl path show

  # Forget the game path and the activation order
  addonctl path clear`,
	}

	pathSetCmd = &cobra.Command{
		Use:   "set <dir>",
		Short: "Set the game install path and scan for addons",
		Args:  cobra.ExactArgs(1),
		RunE:  runPathSet,
	}

	pathShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the game install path",
		Args:  cobra.NoArgs,
		RunE:  runPathShow,
	}

	pathClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Forget the game install path and activation order",
		Args:  cobra.NoArgs,
		RunE:  runPathClear,
	}
)

func init() {
	pathCmd.AddCommand(pathSetCmd)
	pathCmd.AddCommand(pathShowCmd)
	pathCmd.AddCommand(pathClearCmd)

	// Register with root command
	RootCmd.AddCommand(pathCmd)
}

func runPathSet(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if !dirExists(root) {
		return fmt.Errorf("game path does not exist: %s", root)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.manager.SetGameRoot(root); err != nil {
		return err
	}

	entries, err := refreshFor(cmd, s)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Game path set to %s\n", root)
	fmt.Fprintf(cmd.OutOrStdout(), "Found %d addon(s) in %s\n", len(entries), s.manager.SourceDir())
	return nil
}

func runPathShow(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	root := s.manager.GameRoot()
	if root == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Game path is not set. Run 'addonctl path set <dir>'.")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), root)
	return nil
}

func runPathClear(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.manager.ClearGameRoot(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Game path and activation order cleared.")
	return nil
}
