package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l4d2tools/addonctl/internal/addons"
	"github.com/l4d2tools/addonctl/internal/output"
)

var recreateCmd = &cobra.Command{
	Use:   "recreate",
	Short: "Rebuild the copies of all enabled addons",
	Long: `Delete and recreate the copy of every enabled addon from its workshop package.

Use this after a workshop update replaced a package, or when an addon copy
was damaged. Addons that fail are reported and the rest are still rebuilt.
The workshop directory is not rescanned first, so incomplete copies are
repaired instead of being switched off.`,
	Example: `  addonctl recreate`,
	Args:    cobra.NoArgs,
	RunE:    runRecreate,
}

func init() {
	// Register with root command
	RootCmd.AddCommand(recreateCmd)
}

func runRecreate(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	enabled := addons.EnabledCount(s.manager.Entries())

	spinner := output.NewSpinner(fmt.Sprintf("Recreating %d enabled addon(s)", enabled))
	spinner.Start()
	err = s.manager.RecreateActive()
	spinner.Stop()

	if err != nil {
		return fmt.Errorf("failed to recreate some addons:\n  %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recreated %d addon(s)\n", enabled)
	return nil
}
