package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MHC32/momentum/internal/app"
	"github.com/MHC32/momentum/internal/models"
)

var (
	goalsOutput string
	goalsLevel  string
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "List goals with their progress",
	Long: `List goals with the progress computed by the server.

Examples:
  momentumctl goals
  momentumctl goals --level quarterly --output yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), true, func() error {
			var goals []models.Goal
			for _, goal := range app.Sync().Goals() {
				if goalsLevel != "" && goal.Level != goalsLevel {
					continue
				}
				goals = append(goals, goal)
			}
			return renderGoals(cmd.OutOrStdout(), goals, goalsOutput)
		})
	},
}

func init() {
	goalsCmd.Flags().StringVarP(&goalsOutput, "output", "o", outputText, "output format (text, json, yaml)")
	goalsCmd.Flags().StringVarP(&goalsLevel, "level", "l", "", "only goals of this level")
}

type goalRow struct {
	ID       string  `json:"id" yaml:"id"`
	Title    string  `json:"title" yaml:"title"`
	Level    string  `json:"level" yaml:"level"`
	Progress float64 `json:"progress" yaml:"progress"`
	Status   string  `json:"status,omitempty" yaml:"status,omitempty"`
}

func renderGoals(w io.Writer, goals []models.Goal, format string) error {
	rows := make([]goalRow, len(goals))
	for i, goal := range goals {
		rows[i] = goalRow{
			ID:       goal.ID,
			Title:    goal.Title,
			Level:    goal.Level,
			Progress: goal.ProgressPercent(),
			Status:   goal.ProgressStatus,
		}
	}

	switch format {
	case outputJSON:
		return writeJSON(w, rows)
	case outputYAML:
		return writeYAML(w, rows)
	case outputText:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%s\n", row.ID, row.Title, row.Level, row.Progress, row.Status)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
