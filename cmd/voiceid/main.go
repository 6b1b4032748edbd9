// Package main is the entry point for the voiceid CLI.
//
// Usage:
//
//	voiceid [flags] <command> [args]
//
// Commands:
//
//	register        - Enroll a speaker from an embedding file
//	unregister      - Remove an enrolled speaker
//	list            - List enrolled speakers
//	identify        - Identify a speaker from a query embedding
//	batch-register  - Enroll every embedding file in a directory
//	export          - Write a snapshot (local file or S3)
//	import          - Import a snapshot
//	serve           - Run the HTTP identification API
//	version         - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/voiceid/cmd/voiceid/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
