package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/voiceid/pkg/cli"
)

var listFlags struct {
	output string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled speakers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		records := store.List()

		if cli.OutputFormat(listFlags.output) == cli.FormatTable {
			if len(records) == 0 {
				fmt.Println(cli.Dim("no speakers enrolled"))
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.SpeakerID,
					rec.SpeakerName,
					rec.ModelTag,
					fmt.Sprintf("%d", len(rec.Embedding)),
					rec.RegisteredAt.Format(time.RFC3339),
				})
			}
			fmt.Print(cli.Table([]string{"ID", "NAME", "MODEL", "DIM", "REGISTERED"}, rows))
			return nil
		}

		out := make([]map[string]any, 0, len(records))
		for _, rec := range records {
			out = append(out, map[string]any{
				"speaker_id":    rec.SpeakerID,
				"speaker_name":  rec.SpeakerName,
				"model_tag":     rec.ModelTag,
				"source_ref":    rec.SourceRef,
				"dimension":     len(rec.Embedding),
				"registered_at": rec.RegisteredAt,
			})
		}
		return cli.Output(out, cli.OutputOptions{Format: cli.OutputFormat(listFlags.output)})
	},
}

func init() {
	listCmd.Flags().StringVarP(&listFlags.output, "output", "o", "table", "output format (table, yaml, json)")
	rootCmd.AddCommand(listCmd)
}
