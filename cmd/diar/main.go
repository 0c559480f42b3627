// Package main provides the diar speaker clustering CLI tool.
//
// Usage:
//
//	diar [flags] <command> [args]
//
// Commands:
//
//	cluster  - Assign speaker labels to session segments
//	estimate - Estimate the speaker count of a session
//	synth    - Generate a synthetic session with known speakers
//	config   - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.diar/diar/
//	Use 'diar config' commands to manage clustering profiles.
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/diar/cmd/diar/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
