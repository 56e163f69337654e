package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l4d2tools/addonctl/internal/addons"
)

var (
	toggleCmd = &cobra.Command{
		Use:   "toggle <addon>",
		Short: "Switch an addon on or off",
		Long: `Flip the enabled state of an addon.

Enabling copies the package into its own search path below the game root.
Disabling removes that copy. gameinfo.txt is rewritten afterwards.

The addon may be given as its package file name, its addon id or its
position in 'addonctl list'.`,
		Example: `  # Toggle by file name
  addonctl toggle 123456789.vpk

  # Toggle the third addon in the list
  addonctl toggle 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetEnabled(cmd, args[0], nil)
		},
	}

	enableCmd = &cobra.Command{
		Use:     "enable <addon>",
		Short:   "Enable an addon",
		Example: `  addonctl enable 123456789.vpk`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on := true
			return runSetEnabled(cmd, args[0], &on)
		},
	}

	disableCmd = &cobra.Command{
		Use:     "disable <addon>",
		Short:   "Disable an addon",
		Example: `  addonctl disable addon3`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			off := false
			return runSetEnabled(cmd, args[0], &off)
		},
	}
)

func init() {
	// Register with root command
	RootCmd.AddCommand(toggleCmd)
	RootCmd.AddCommand(enableCmd)
	RootCmd.AddCommand(disableCmd)
}

// runSetEnabled toggles the addon when want is nil, otherwise sets it.
func runSetEnabled(cmd *cobra.Command, arg string, want *bool) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := refreshFor(cmd, s)
	if err != nil {
		return err
	}

	target, err := resolveAddon(entries, arg)
	if err != nil {
		return err
	}

	if want != nil && target.Enabled == *want {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is already %s\n", target.Name, target.AddonID, stateWord(target))
		return nil
	}

	if want != nil {
		entries, err = s.manager.SetEnabled(target.Name, *want)
	} else {
		entries, err = s.manager.Toggle(target.Name)
	}

	updated, findErr := resolveAddon(entries, target.Name)
	if findErr != nil {
		return findErr
	}
	if updated.Enabled == target.Enabled {
		return err
	}
	warnPartial(cmd, err)

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", updated.Name, updated.AddonID, stateWord(updated))
	return nil
}

func stateWord(e addons.Entry) string {
	if e.Enabled {
		return "enabled"
	}
	return "disabled"
}
