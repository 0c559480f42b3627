package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/diar/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and clustering profiles.

Profiles hold named sets of clustering tunables, similar to kubectl's
context management. Unset tunables keep their built-in defaults.

Configuration is stored in ~/.diar/diar/config.yaml`,
}

var configAddProfileCmd = &cobra.Command{
	Use:   "add-profile <name>",
	Short: "Add a new clustering profile",
	Long: `Add a new profile with the specified name.

Example:
  diar config add-profile podcasts --max-speakers 4
  diar config add-profile meetings --max-speakers 8 --trials 5 --tolerance 0.5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		p := &cli.Profile{}
		if err := readProfileFlags(cmd, p); err != nil {
			return err
		}

		cfg := getConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not initialized")
		}
		if err := cfg.AddProfile(name, p); err != nil {
			return err
		}

		cli.PrintSuccess("Profile %q added successfully", name)
		return nil
	},
}

var configDeleteProfileCmd = &cobra.Command{
	Use:   "delete-profile <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg := getConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not initialized")
		}
		if err := cfg.DeleteProfile(name); err != nil {
			return err
		}

		cli.PrintSuccess("Profile %q deleted", name)
		return nil
	},
}

var configUseProfileCmd = &cobra.Command{
	Use:   "use-profile <name>",
	Short: "Set the current profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg := getConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not initialized")
		}
		if err := cfg.UseProfile(name); err != nil {
			return err
		}

		cli.PrintSuccess("Switched to profile %q", name)
		return nil
	},
}

var configGetProfileCmd = &cobra.Command{
	Use:   "get-profile",
	Short: "Display the current profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not initialized")
		}

		if cfg.CurrentProfile == "" {
			fmt.Println("No current profile set")
			return nil
		}

		fmt.Println(cfg.CurrentProfile)
		return nil
	},
}

var configListProfilesCmd = &cobra.Command{
	Use:     "list-profiles",
	Aliases: []string{"get-profiles"},
	Short:   "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not initialized")
		}

		if len(cfg.Profiles) == 0 {
			fmt.Println("No profiles configured")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tMAX_SPEAKERS\tTRIALS\tSEED")

		for _, name := range cfg.ListProfiles() {
			p := cfg.Profiles[name]
			current := ""
			if name == cfg.CurrentProfile {
				current = "*"
			}
			maxSpeakers := "(default)"
			if p.MaxSpeakers > 0 {
				maxSpeakers = fmt.Sprintf("%d", p.MaxSpeakers)
			}
			trials := "(default)"
			if p.Trials > 0 {
				trials = fmt.Sprintf("%d", p.Trials)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", current, name, maxSpeakers, trials, p.Seed)
		}

		w.Flush()
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not initialized")
		}

		fmt.Printf("Config file: %s\n", cfg.Path())
		fmt.Printf("Current profile: %s\n", cfg.CurrentProfile)
		fmt.Printf("Profiles: %d\n", len(cfg.Profiles))

		if len(cfg.Profiles) > 0 {
			fmt.Println("\nProfile details:")
			for _, name := range cfg.ListProfiles() {
				p := cfg.Profiles[name]
				fmt.Printf("\n  %s:\n", name)
				if p.MaxSpeakers > 0 {
					fmt.Printf("    Max Speakers: %d\n", p.MaxSpeakers)
				}
				if p.MinSegments > 0 {
					fmt.Printf("    Min Segments: %d\n", p.MinSegments)
				}
				if p.EnhancedCountThreshold > 0 {
					fmt.Printf("    Enhanced Count Threshold: %d\n", p.EnhancedCountThreshold)
				}
				if p.MaxPruneRatio > 0 {
					fmt.Printf("    Max Prune Ratio: %g\n", p.MaxPruneRatio)
				}
				if p.SearchVolume > 0 {
					fmt.Printf("    Search Volume: %d\n", p.SearchVolume)
				}
				if p.FullSearch {
					fmt.Printf("    Full Search: true\n")
				}
				if p.SubsampleTarget != 0 {
					fmt.Printf("    Subsample Target: %d\n", p.SubsampleTarget)
				}
				if p.FixedThreshold > 0 {
					fmt.Printf("    Fixed Threshold: %g\n", p.FixedThreshold)
				}
				if p.Trials > 0 {
					fmt.Printf("    Trials: %d\n", p.Trials)
				}
				if p.Seed != 0 {
					fmt.Printf("    Seed: %d\n", p.Seed)
				}
				if p.Tolerance > 0 {
					fmt.Printf("    Tolerance: %gs\n", p.Tolerance)
				}
			}
		}

		return nil
	},
}

// readProfileFlags fills a profile from the add-profile flags
func readProfileFlags(cmd *cobra.Command, p *cli.Profile) error {
	flags := cmd.Flags()
	var err error
	if p.MaxSpeakers, err = flags.GetInt("max-speakers"); err != nil {
		return fmt.Errorf("failed to read 'max-speakers' flag: %w", err)
	}
	if p.MinSegments, err = flags.GetInt("min-segments"); err != nil {
		return fmt.Errorf("failed to read 'min-segments' flag: %w", err)
	}
	if p.EnhancedCountThreshold, err = flags.GetInt("enhanced-threshold"); err != nil {
		return fmt.Errorf("failed to read 'enhanced-threshold' flag: %w", err)
	}
	if p.MaxPruneRatio, err = flags.GetFloat64("max-prune-ratio"); err != nil {
		return fmt.Errorf("failed to read 'max-prune-ratio' flag: %w", err)
	}
	if p.SearchVolume, err = flags.GetInt("search-volume"); err != nil {
		return fmt.Errorf("failed to read 'search-volume' flag: %w", err)
	}
	if p.FullSearch, err = flags.GetBool("full-search"); err != nil {
		return fmt.Errorf("failed to read 'full-search' flag: %w", err)
	}
	if p.SubsampleTarget, err = flags.GetInt("subsample-target"); err != nil {
		return fmt.Errorf("failed to read 'subsample-target' flag: %w", err)
	}
	if p.FixedThreshold, err = flags.GetFloat64("fixed-threshold"); err != nil {
		return fmt.Errorf("failed to read 'fixed-threshold' flag: %w", err)
	}
	if p.Trials, err = flags.GetInt("trials"); err != nil {
		return fmt.Errorf("failed to read 'trials' flag: %w", err)
	}
	if p.Seed, err = flags.GetUint64("seed"); err != nil {
		return fmt.Errorf("failed to read 'seed' flag: %w", err)
	}
	if p.Tolerance, err = flags.GetFloat64("tolerance"); err != nil {
		return fmt.Errorf("failed to read 'tolerance' flag: %w", err)
	}
	return nil
}

func init() {
	// add-profile flags
	configAddProfileCmd.Flags().Int("max-speakers", 0, "cap on the estimated speaker count")
	configAddProfileCmd.Flags().Int("min-segments", 0, "session size at or below which the eigengap estimator is skipped")
	configAddProfileCmd.Flags().Int("enhanced-threshold", 0, "session size at or below which anchored counting runs")
	configAddProfileCmd.Flags().Float64("max-prune-ratio", 0, "upper bound of the pruning-ratio search")
	configAddProfileCmd.Flags().Int("search-volume", 0, "number of sparse search candidates")
	configAddProfileCmd.Flags().Bool("full-search", false, "try every candidate ratio")
	configAddProfileCmd.Flags().Int("subsample-target", 0, "matrix size bound during the ratio search (negative disables)")
	configAddProfileCmd.Flags().Float64("fixed-threshold", 0, "preset pruning ratio (skips the search)")
	configAddProfileCmd.Flags().Int("trials", 0, "number of voting k-means runs")
	configAddProfileCmd.Flags().Uint64("seed", 0, "random seed")
	configAddProfileCmd.Flags().Float64("tolerance", 0, "turn merge tolerance in seconds")

	// Add subcommands
	configCmd.AddCommand(configAddProfileCmd)
	configCmd.AddCommand(configDeleteProfileCmd)
	configCmd.AddCommand(configUseProfileCmd)
	configCmd.AddCommand(configGetProfileCmd)
	configCmd.AddCommand(configListProfilesCmd)
	configCmd.AddCommand(configViewCmd)
}
