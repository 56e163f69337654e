package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l4d2tools/addonctl/internal/addons"
	"github.com/l4d2tools/addonctl/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the game path, running flag and addon selection",
	Long: `Display the current addonctl state without scanning the workshop directory.

Shows:
  • Configured game path
  • Whether the game is marked as running
  • Number of enabled addons out of all known addons`,
	Example: `  # Check status
  addonctl status`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	// Register with root command
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	entries := s.manager.Entries()
	fmt.Fprint(cmd.OutOrStdout(), output.RenderStatus(
		s.manager.GameRoot(),
		s.manager.Running(),
		addons.EnabledCount(entries),
		len(entries),
	))
	return nil
}
