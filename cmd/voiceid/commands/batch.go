package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/voiceid/pkg/cli"
	"github.com/haivivi/voiceid/pkg/voiceprint"
)

var batchFlags struct {
	model  string
	output string
}

var batchRegisterCmd = &cobra.Command{
	Use:   "batch-register <dir>",
	Short: "Enroll every embedding file in a directory",
	Long: `Enroll one speaker per embedding file (*.json, *.yaml, *.yml) found in
the directory. The file name without extension becomes the speaker id.

A malformed file does not abort the batch; its failure is reported and
the remaining files are still enrolled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		model := batchFlags.model
		if model == "" {
			model = cfg.ModelTag
		}
		if model == "" {
			return fmt.Errorf("no model tag: pass --model or set model_tag in the config")
		}

		entries, err := os.ReadDir(args[0])
		if err != nil {
			return err
		}

		var items []voiceprint.BatchItem
		var files []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := filepath.Ext(e.Name())
			if ext != ".json" && ext != ".yaml" && ext != ".yml" {
				continue
			}
			path := filepath.Join(args[0], e.Name())
			item := voiceprint.BatchItem{
				SpeakerID: strings.TrimSuffix(e.Name(), ext),
				ModelTag:  model,
				SourceRef: path,
			}
			emb, err := readEmbedding(path)
			if err != nil {
				// The coordinator reports the read failure in the
				// item's outcome without aborting the batch.
				item.Err = err
			} else {
				item.Embedding = emb
			}
			items = append(items, item)
			files = append(files, path)
		}
		if len(items) == 0 {
			return fmt.Errorf("no embedding files in %s", args[0])
		}

		store, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		coord := voiceprint.NewCoordinator(store, nil)
		report, err := coord.RegisterAll(ctx, items)
		if err != nil {
			return err
		}

		outcomes := make([]map[string]any, 0, len(report.Outcomes))
		for _, out := range report.Outcomes {
			o := map[string]any{
				"file":       files[out.Index],
				"speaker_id": out.SpeakerID,
			}
			if out.Err != nil {
				o["error"] = out.Err.Error()
			}
			outcomes = append(outcomes, o)
		}
		return cli.Output(map[string]any{
			"registered": len(report.Outcomes) - report.Failed,
			"failed":     report.Failed,
			"outcomes":   outcomes,
		}, cli.OutputOptions{Format: cli.OutputFormat(batchFlags.output)})
	},
}

func init() {
	batchRegisterCmd.Flags().StringVar(&batchFlags.model, "model", "", "model tag of the embeddings")
	batchRegisterCmd.Flags().StringVarP(&batchFlags.output, "output", "o", "yaml", "output format (yaml, json)")
	rootCmd.AddCommand(batchRegisterCmd)
}
