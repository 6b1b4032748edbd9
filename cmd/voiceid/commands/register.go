package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/haivivi/voiceid/pkg/cli"
	"github.com/haivivi/voiceid/pkg/voiceprint"
)

var registerFlags struct {
	file        string
	name        string
	model       string
	source      string
	noOverwrite bool
	output      string
}

var registerCmd = &cobra.Command{
	Use:   "register [speaker-id]",
	Short: "Enroll a speaker from an embedding file",
	Long: `Enroll a speaker voiceprint from an embedding file (JSON or YAML).

When speaker-id is omitted a random UUID is assigned. Re-registering an
existing id replaces the stored voiceprint unless --no-overwrite is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id := uuid.NewString()
		if len(args) == 1 {
			id = args[0]
		}

		emb, err := readEmbedding(registerFlags.file)
		if err != nil {
			return err
		}

		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		model := registerFlags.model
		if model == "" {
			model = cfg.ModelTag
		}
		if model == "" {
			return fmt.Errorf("no model tag: pass --model or set model_tag in the config")
		}

		store, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		if registerFlags.noOverwrite {
			if _, ok := store.Get(id); ok {
				return fmt.Errorf("speaker %q already registered", id)
			}
		}

		rec, err := store.Register(ctx, voiceprint.Registration{
			SpeakerID:   id,
			SpeakerName: registerFlags.name,
			Embedding:   emb,
			ModelTag:    model,
			SourceRef:   registerFlags.source,
		})
		if err != nil {
			return err
		}

		return cli.Output(map[string]any{
			"speaker_id":    rec.SpeakerID,
			"speaker_name":  rec.SpeakerName,
			"model_tag":     rec.ModelTag,
			"dimension":     len(rec.Embedding),
			"registered_at": rec.RegisteredAt,
		}, cli.OutputOptions{Format: cli.OutputFormat(registerFlags.output)})
	},
}

func init() {
	registerCmd.Flags().StringVarP(&registerFlags.file, "file", "f", "", "embedding file (JSON or YAML)")
	registerCmd.Flags().StringVar(&registerFlags.name, "name", "", "display name (defaults to the speaker id)")
	registerCmd.Flags().StringVar(&registerFlags.model, "model", "", "model tag of the embedding")
	registerCmd.Flags().StringVar(&registerFlags.source, "source", "", "source reference, e.g. the audio path")
	registerCmd.Flags().BoolVar(&registerFlags.noOverwrite, "no-overwrite", false, "fail if the speaker id is already registered")
	registerCmd.Flags().StringVarP(&registerFlags.output, "output", "o", "yaml", "output format (yaml, json)")
	registerCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(registerCmd)
}
