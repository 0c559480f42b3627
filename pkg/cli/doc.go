// Package cli provides common utilities for diar command-line tools.
//
// This package includes:
//   - Configuration management (named clustering profiles)
//   - Output formatting (JSON, YAML, table, raw)
//   - Options file loading (YAML/JSON)
//   - Terminal rendering (speaker bars, boxed summaries)
//
// Configuration is stored in ~/.diar/<app>/ directory, supporting
// multiple named profiles similar to kubectl contexts.
//
// Example usage:
//
//	// Initialize config for your app
//	cfg, err := cli.LoadConfig("diar")
//
//	// Resolve clustering tunables
//	profile, err := cfg.ResolveProfile("meetings")
//	params := profile.Params()
//
//	// Output result
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
package cli
