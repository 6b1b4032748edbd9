package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var unregisterCmd = &cobra.Command{
	Use:   "unregister <speaker-id>",
	Short: "Remove an enrolled speaker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.Unregister(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("unregistered %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unregisterCmd)
}
