package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runningCmd = &cobra.Command{
	Use:   "running <on|off>",
	Short: "Record whether the game is running",
	Long: `Record whether the game is running and rewrite gameinfo.txt.

While the game runs, gameinfo.txt lists only the base search paths so the
game does not lock the addon copies. Switch it off again after quitting to
restore the addon search paths in activation order.`,
	Example: `  # Before launching the game
  addonctl running on

  # After quitting
  addonctl running off`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runRunning,
}

func init() {
	// Register with root command
	RootCmd.AddCommand(runningCmd)
}

func runRunning(cmd *cobra.Command, args []string) error {
	var running bool
	switch args[0] {
	case "on", "true", "yes":
		running = true
	case "off", "false", "no":
		running = false
	default:
		return fmt.Errorf("invalid state %q (expected on or off)", args[0])
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.manager.SetRunning(running); err != nil {
		return err
	}

	if running {
		fmt.Fprintln(cmd.OutOrStdout(), "Game marked as running; addon search paths removed from gameinfo.txt.")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Game marked as not running; addon search paths restored in gameinfo.txt.")
	}
	return nil
}
