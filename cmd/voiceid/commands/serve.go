package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haivivi/voiceid/pkg/server"
)

var serveFlags struct {
	listen    string
	threshold float32
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP identification API",
	Long: `Run the HTTP API over the local voiceprint database.

Endpoints:
  GET    /health                 liveness and store stats
  GET    /v1/speakers            list enrolled speakers
  POST   /v1/speakers            register a speaker
  POST   /v1/speakers/batch      register a batch
  GET    /v1/speakers/{id}       fetch one speaker
  DELETE /v1/speakers/{id}       unregister a speaker
  POST   /v1/identify            identify a query embedding
  GET    /v1/stream              WebSocket streaming identification

The server shuts down gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		listen := serveFlags.listen
		if listen == "" {
			listen = cfg.Listen
		}
		threshold := serveFlags.threshold
		if !cmd.Flags().Changed("threshold") {
			threshold = cfg.Threshold
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		srv := server.New(store, &server.Options{
			Threshold: threshold,
			Logger:    newLogger(),
		})
		return srv.ListenAndServe(ctx, listen)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.listen, "listen", "", "listen address (default from config)")
	serveCmd.Flags().Float32Var(&serveFlags.threshold, "threshold", 0.5, "default identify threshold")
	rootCmd.AddCommand(serveCmd)
}
