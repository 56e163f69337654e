package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l4d2tools/addonctl/internal/addons"
)

var moveCmd = &cobra.Command{
	Use:   "move <addon> <up|down>",
	Short: "Move an addon one place in the activation order",
	Long: `Swap an addon with its neighbour in the activation order.

Addons earlier in the order are listed first in gameinfo.txt and take
precedence when two addons replace the same file. Moving the first addon up
or the last addon down leaves the order as it is.`,
	Example: `  # Give an addon higher precedence
  addonctl move 123456789.vpk up

  # Move the second addon down
  addonctl move 2 down`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

func init() {
	// Register with root command
	RootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	dir, err := addons.ParseDirection(args[1])
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := refreshFor(cmd, s)
	if err != nil {
		return err
	}

	target, err := resolveAddon(entries, args[0])
	if err != nil {
		return err
	}

	entries, err = s.manager.Move(target.Name, dir)
	warnPartial(cmd, err)

	moved, err := resolveAddon(entries, target.Name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now at position %d of %d\n", moved.Name, moved.Order+1, len(entries))
	return nil
}
