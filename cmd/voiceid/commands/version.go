package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is the build version, overridden at link time:
//
//	go build -ldflags "-X .../commands.Version=v1.2.3"
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("voiceid %s\n", Version)
		if verbose {
			fmt.Printf("  go:     %s\n", runtime.Version())
			if cfg, err := GetConfig(); err == nil {
				fmt.Printf("  config: %s\n", cfg.Dir)
				fmt.Printf("  db:     %s\n", cfg.DBDir)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
