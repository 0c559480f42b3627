package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/haivivi/diar/pkg/diarfmt"
	"github.com/haivivi/diar/pkg/spkcluster"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate <session-file>",
	Short: "Estimate the speaker count of a session",
	Long: `Estimate how many speakers a session contains without clustering it.

Reports the estimated count, the method that produced it (eigengap,
enhanced, oracle or single), and for eigengap estimates the selected
neighbor rank and its quality score (lower is better).

Examples:
  diar estimate meeting.dsess
  diar estimate meeting.json --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := getProfile()
		if err != nil {
			return err
		}

		session, err := diarfmt.ReadFile(args[0])
		if err != nil {
			return err
		}

		est, err := spkcluster.EstimateSpeakers(session.ClusterScales(), profile.Params())
		if err != nil {
			return fmt.Errorf("estimation failed: %w", err)
		}
		slog.Debug("estimated speakers",
			"id", session.ID,
			"speakers", est.Speakers,
			"method", est.Method.String())

		return outputResult(estimateResult{
			SessionID: session.ID,
			Segments:  session.Segments(),
			Speakers:  est.Speakers,
			Method:    est.Method.String(),
			P:         est.P,
			Score:     est.Score,
		})
	},
}

// estimateResult is the estimate command output
type estimateResult struct {
	SessionID string  `json:"session_id" yaml:"session_id"`
	Segments  int     `json:"segments" yaml:"segments"`
	Speakers  int     `json:"speakers" yaml:"speakers"`
	Method    string  `json:"method" yaml:"method"`
	P         int     `json:"p,omitempty" yaml:"p,omitempty"`
	Score     float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

func (r estimateResult) TableHeader() []string {
	return []string{"SESSION", "SEGMENTS", "SPEAKERS", "METHOD", "P", "SCORE"}
}

func (r estimateResult) TableRows() [][]string {
	return [][]string{{
		r.SessionID,
		fmt.Sprintf("%d", r.Segments),
		fmt.Sprintf("%d", r.Speakers),
		r.Method,
		fmt.Sprintf("%d", r.P),
		fmt.Sprintf("%.4f", r.Score),
	}}
}
