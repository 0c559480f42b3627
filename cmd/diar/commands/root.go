package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/diar/pkg/cli"
)

const appName = "diar"

var (
	// Global flags
	cfgFile     string
	profileName string
	outputFile  string
	inputFile   string
	formatName  string
	verbose     bool

	// Global configuration
	globalConfig *cli.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "diar",
	Short: "Speaker clustering CLI tool",
	Long: `diar - speaker clustering for diarization pipelines.

This tool groups per-segment speaker embeddings by speaker without
knowing the speaker count in advance:
  - cluster   assign a speaker label to every segment of a session
  - estimate  report the estimated speaker count without clustering
  - synth     generate a synthetic session with known speakers
  - config    manage named clustering profiles

Session files carry multiscale segment embeddings as JSON (.json) or
msgpack (.dsess). Configuration is stored in ~/.diar/diar/ and supports
multiple named profiles, similar to kubectl's context management.

Examples:
  # Cluster a session and print speaker turns
  diar cluster meeting.dsess

  # Emit RTTM for diarization scoring
  diar cluster meeting.dsess --rttm -o meeting.rttm

  # Tune a profile once, then reuse it
  diar config add-profile podcasts --max-speakers 4
  diar -p podcasts cluster episode.json
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "", "config file (default is ~/.diar/diar/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "clustering profile to use")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "options file overriding the profile (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&formatName, "format", "", "output format: yaml, json, table, raw")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(clusterCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(synthCmd)
}

func initConfig() {
	// Configure slog based on verbose flag
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		// Warn but keep running so commands that need no config still work.
		fmt.Fprintf(os.Stderr, "Warning: %s config: %v\n", appName, err)
	}
}

// getConfig returns the global configuration
func getConfig() *cli.Config {
	return globalConfig
}

// getProfile returns the clustering profile to use, with any options
// file from -f applied on top.
func getProfile() (*cli.Profile, error) {
	cfg := getConfig()
	if cfg == nil {
		if profileName != "" {
			return nil, fmt.Errorf("configuration not initialized")
		}
		return &cli.Profile{}, nil
	}

	profile, err := cfg.ResolveProfile(profileName)
	if err != nil {
		return nil, err
	}
	if inputFile != "" {
		// Copy so file overrides do not leak into the saved profile.
		override := *profile
		if err := cli.LoadRequest(inputFile, &override); err != nil {
			return nil, err
		}
		return &override, nil
	}
	return profile, nil
}
