// Package main provides the qper CLI.
//
// Usage:
//
//	qper [flags] <command> [args]
//
// Commands:
//
//	chat        - Interactive conversation in the terminal
//	send        - Send one turn and print the reply
//	upload      - Validate and upload attachments
//	transcribe  - Transcribe an audio file
//	record      - Record from a microphone and optionally transcribe
//	serve       - Serve the websocket bridge for browser clients
//	config      - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.qper/qper/
//	Use 'qper config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/aita-solution/qper-threads-correct/cmd/qper/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
