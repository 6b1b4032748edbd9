package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/voiceid/pkg/cli"
	"github.com/haivivi/voiceid/pkg/voiceprint"
)

var identifyFlags struct {
	file      string
	model     string
	threshold float32
	output    string
}

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Identify a speaker from a query embedding",
	Long: `Identify the enrolled speaker most similar to a query embedding.

Prints the best match when its cosine similarity reaches the threshold;
otherwise reports no match. Only speakers enrolled with the same model
tag are considered.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		emb, err := readEmbedding(identifyFlags.file)
		if err != nil {
			return err
		}

		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		model := identifyFlags.model
		if model == "" {
			model = cfg.ModelTag
		}
		if model == "" {
			return fmt.Errorf("no model tag: pass --model or set model_tag in the config")
		}
		threshold := identifyFlags.threshold
		if !cmd.Flags().Changed("threshold") {
			threshold = cfg.Threshold
		}

		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		match, err := store.Identify(emb, model, threshold)
		if errors.Is(err, voiceprint.ErrNoCandidates) {
			return fmt.Errorf("no enrolled speakers for model %q", model)
		}
		if err != nil {
			return err
		}

		format := cli.OutputFormat(identifyFlags.output)
		if match == nil {
			return cli.Output(map[string]any{"match": nil}, cli.OutputOptions{Format: format})
		}
		return cli.Output(map[string]any{
			"match": map[string]any{
				"speaker_id":   match.SpeakerID,
				"speaker_name": match.SpeakerName,
				"score":        match.Score,
			},
		}, cli.OutputOptions{Format: format})
	},
}

func init() {
	identifyCmd.Flags().StringVarP(&identifyFlags.file, "file", "f", "", "query embedding file (JSON or YAML)")
	identifyCmd.Flags().StringVar(&identifyFlags.model, "model", "", "model tag of the query embedding")
	identifyCmd.Flags().Float32Var(&identifyFlags.threshold, "threshold", 0.5, "minimum similarity for a match")
	identifyCmd.Flags().StringVarP(&identifyFlags.output, "output", "o", "yaml", "output format (yaml, json)")
	identifyCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(identifyCmd)
}
