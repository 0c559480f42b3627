package commands

import (
	"github.com/haivivi/diar/pkg/cli"
)

// outputResult writes a command result honoring the global output flags
func outputResult(result any) error {
	return cli.Output(result, cli.OutputOptions{
		Format: cli.OutputFormat(formatName),
		File:   outputFile,
	})
}

// printVerbose prints verbose output to stderr
func printVerbose(format string, args ...any) {
	cli.PrintVerbose(verbose, format, args...)
}

// printSuccess prints a success message
func printSuccess(format string, args ...any) {
	cli.PrintSuccess(format, args...)
}

// countSpeakers returns the number of distinct labels
func countSpeakers(labels []int) int {
	seen := make(map[int]bool)
	for _, l := range labels {
		seen[l] = true
	}
	return len(seen)
}
