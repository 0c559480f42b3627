package commands

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/diar/pkg/cli"
	"github.com/haivivi/diar/pkg/diarfmt"
	"github.com/haivivi/diar/pkg/spkcluster"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster <session-file>",
	Short: "Assign speaker labels to session segments",
	Long: `Cluster a session's segments by speaker.

Reads a session file (.json or .dsess), estimates the number of
speakers, and assigns a label to every base-scale segment. The default
output carries the labels and the merged speaker turns; --rttm emits
NIST RTTM lines instead.

Examples:
  diar cluster meeting.dsess
  diar cluster meeting.json --format json -o labels.json
  diar cluster meeting.dsess --rttm -o meeting.rttm
  diar cluster interview.dsess --oracle 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := getProfile()
		if err != nil {
			return err
		}
		if err := applyClusterFlags(cmd, profile); err != nil {
			return err
		}

		session, err := diarfmt.ReadFile(args[0])
		if err != nil {
			return err
		}

		params := profile.Params()
		oracle, err := cmd.Flags().GetInt("oracle")
		if err != nil {
			return fmt.Errorf("failed to read 'oracle' flag: %w", err)
		}
		params.OracleSpeakers = oracle

		slog.Debug("clustering session",
			"id", session.ID,
			"segments", session.Segments(),
			"dim", session.Dim(),
			"scales", len(session.Scales))

		start := time.Now()
		labels, err := spkcluster.Cluster(session.ClusterScales(), params)
		if err != nil {
			return fmt.Errorf("clustering failed: %w", err)
		}
		slog.Debug("clustering done",
			"speakers", countSpeakers(labels),
			"elapsed", time.Since(start))

		turns, err := diarfmt.Turns(labels, session.BaseIntervals(), profile.Tolerance)
		if err != nil {
			return err
		}

		if verbose {
			printSummary(session.ID, turns)
		}

		rttm, err := cmd.Flags().GetBool("rttm")
		if err != nil {
			return fmt.Errorf("failed to read 'rttm' flag: %w", err)
		}
		if rttm {
			return cli.Output(diarfmt.RTTM(session.ID, turns), cli.OutputOptions{
				Format: cli.FormatRaw,
				File:   outputFile,
			})
		}

		return outputResult(clusterResult{
			SessionID: session.ID,
			Speakers:  countSpeakers(labels),
			Labels:    labels,
			Turns:     turns,
		})
	},
}

// clusterResult is the cluster command output
type clusterResult struct {
	SessionID string         `json:"session_id" yaml:"session_id"`
	Speakers  int            `json:"speakers" yaml:"speakers"`
	Labels    []int          `json:"labels" yaml:"labels"`
	Turns     []diarfmt.Turn `json:"turns" yaml:"turns"`
}

func (r clusterResult) TableHeader() []string {
	return []string{"SPEAKER", "START", "END", "DURATION"}
}

func (r clusterResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Turns))
	for _, t := range r.Turns {
		rows = append(rows, []string{
			fmt.Sprintf("speaker_%d", t.Speaker),
			fmt.Sprintf("%.2f", t.Start),
			fmt.Sprintf("%.2f", t.End),
			cli.FormatSeconds(t.End - t.Start),
		})
	}
	return rows
}

// applyClusterFlags overrides profile tunables with explicitly set flags
func applyClusterFlags(cmd *cobra.Command, p *cli.Profile) error {
	flags := cmd.Flags()
	if flags.Changed("max-speakers") {
		v, err := flags.GetInt("max-speakers")
		if err != nil {
			return fmt.Errorf("failed to read 'max-speakers' flag: %w", err)
		}
		p.MaxSpeakers = v
	}
	if flags.Changed("seed") {
		v, err := flags.GetUint64("seed")
		if err != nil {
			return fmt.Errorf("failed to read 'seed' flag: %w", err)
		}
		p.Seed = v
	}
	if flags.Changed("trials") {
		v, err := flags.GetInt("trials")
		if err != nil {
			return fmt.Errorf("failed to read 'trials' flag: %w", err)
		}
		p.Trials = v
	}
	if flags.Changed("tolerance") {
		v, err := flags.GetFloat64("tolerance")
		if err != nil {
			return fmt.Errorf("failed to read 'tolerance' flag: %w", err)
		}
		p.Tolerance = v
	}
	return nil
}

// printSummary renders per-speaker talk time bars to stderr
func printSummary(id string, turns []diarfmt.Turn) {
	talk := make(map[int]float64)
	var total float64
	for _, t := range turns {
		d := t.End - t.Start
		talk[t.Speaker] += d
		total += d
	}

	st := cli.NewStyles(cli.DefaultTheme)
	speakers := slices.Sorted(maps.Keys(talk))
	lines := make([]string, 0, len(speakers))
	for _, s := range speakers {
		lines = append(lines, st.SpeakerBar(s, talk[s], total, 18))
	}
	title := fmt.Sprintf("%s  %d speakers", id, len(speakers))
	fmt.Fprintln(os.Stderr, st.Box(title, lines, 64))
}

func init() {
	clusterCmd.Flags().Int("oracle", 0, "known speaker count (skips estimation)")
	clusterCmd.Flags().Int("max-speakers", 0, "cap on the estimated speaker count")
	clusterCmd.Flags().Uint64("seed", 0, "random seed")
	clusterCmd.Flags().Int("trials", 0, "number of voting k-means runs")
	clusterCmd.Flags().Float64("tolerance", 0, "merge tolerance in seconds between same-speaker segments")
	clusterCmd.Flags().Bool("rttm", false, "emit NIST RTTM lines")
}
