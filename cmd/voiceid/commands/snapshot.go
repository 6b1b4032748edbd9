package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/haivivi/voiceid/pkg/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export <destination>",
	Short: "Write a snapshot of all voiceprints",
	Long: `Write a single-file snapshot of the whole store.

The destination is a local path or an s3://bucket/key URL. S3 access
uses the AWS_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
optional AWS_ENDPOINT_URL environment variables.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		fs, path, err := resolveFileStore(args[0])
		if err != nil {
			return err
		}
		if err := store.ExportTo(ctx, fs, path); err != nil {
			return err
		}
		fmt.Printf("exported %d speakers to %s\n", store.Count(), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "Import a snapshot of voiceprints",
	Long: `Import a snapshot written by 'voiceid export'. Existing speakers with
the same ids are overwritten; original registration timestamps are
preserved. The source is a local path or an s3://bucket/key URL.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		fs, path, err := resolveFileStore(args[0])
		if err != nil {
			return err
		}
		if err := store.ImportFrom(ctx, fs, path); err != nil {
			return err
		}
		fmt.Printf("imported snapshot, store now holds %d speakers\n", store.Count())
		return nil
	},
}

// resolveFileStore maps a destination argument to a FileStore and a path
// within it. s3://bucket/key URLs go to S3; everything else is a local path.
func resolveFileStore(arg string) (storage.FileStore, string, error) {
	if rest, ok := strings.CutPrefix(arg, "s3://"); ok {
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return nil, "", fmt.Errorf("invalid S3 URL %q, want s3://bucket/key", arg)
		}
		client, err := newS3Client()
		if err != nil {
			return nil, "", err
		}
		return storage.NewS3(client, bucket, ""), key, nil
	}
	// Root the local store at the argument's directory so absolute and
	// relative paths are both honored verbatim.
	fs, err := storage.NewLocal(filepath.Dir(arg))
	if err != nil {
		return nil, "", err
	}
	return fs, filepath.Base(arg), nil
}

// newS3Client builds an S3 client from the standard AWS environment
// variables.
func newS3Client() (*s3.Client, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		return nil, fmt.Errorf("AWS_REGION is not set")
	}

	opts := s3.Options{
		Region: region,
		Credentials: aws.CredentialsProviderFunc(func(_ context.Context) (aws.Credentials, error) {
			id := os.Getenv("AWS_ACCESS_KEY_ID")
			secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
			if id == "" || secret == "" {
				return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY are not set")
			}
			return aws.Credentials{
				AccessKeyID:     id,
				SecretAccessKey: secret,
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			}, nil
		}),
	}
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts), nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
