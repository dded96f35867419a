package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MHC32/momentum/internal/app"
	"github.com/MHC32/momentum/internal/models"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	boardOutput  string
	boardProject string
	searchOutput string
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the kanban board",
	Long: `Show the kanban board of all tasks, or of one project.

Examples:
  momentumctl board
  momentumctl board --project 65f0c2 --output yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), true, func() error {
			sync := app.Sync()
			kanban := sync.Kanban()
			if boardProject != "" {
				loaded, err := sync.LoadProjectKanban(cmd.Context(), boardProject)
				if err != nil {
					return fmt.Errorf("failed to load project board: %w", err)
				}
				kanban = *loaded
			}
			return renderBoard(cmd.OutOrStdout(), kanban, boardOutput)
		})
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <task-id> <status>",
	Short: "Move a task to another column",
	Long: `Move a task to another column. Status is one of todo, in-progress, done.

Examples:
  momentumctl move 65f0c2 done`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), true, func() error {
			task, err := app.Sync().MoveTask(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("move failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", taskLabel(*task), task.Status)
			return nil
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy search tasks by title or code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), true, func() error {
			tasks := app.Sync().SearchTasks(args[0])
			return renderTasks(cmd.OutOrStdout(), tasks, searchOutput)
		})
	},
}

func init() {
	boardCmd.Flags().StringVarP(&boardOutput, "output", "o", outputText, "output format (text, json, yaml)")
	boardCmd.Flags().StringVarP(&boardProject, "project", "p", "", "show the board of one project")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", outputText, "output format (text, json, yaml)")
}

type taskRow struct {
	ID       string `json:"id" yaml:"id"`
	Code     string `json:"code,omitempty" yaml:"code,omitempty"`
	Title    string `json:"title" yaml:"title"`
	Priority string `json:"priority,omitempty" yaml:"priority,omitempty"`
	Project  string `json:"project,omitempty" yaml:"project,omitempty"`
}

type boardView struct {
	Todo       []taskRow `json:"todo" yaml:"todo"`
	InProgress []taskRow `json:"in-progress" yaml:"in-progress"`
	Done       []taskRow `json:"done" yaml:"done"`
}

func newTaskRows(tasks []models.Task) []taskRow {
	rows := make([]taskRow, len(tasks))
	for i, task := range tasks {
		rows[i] = taskRow{
			ID:       task.ID,
			Code:     task.Code,
			Title:    task.Title,
			Priority: task.Priority,
			Project:  projectName(task.Project),
		}
	}
	return rows
}

func projectName(ref models.ProjectRef) string {
	if ref.Project != nil && ref.Project.Name != "" {
		return ref.Project.Name
	}
	return ref.ID
}

func taskLabel(task models.Task) string {
	if task.Code != "" {
		return task.Code
	}
	return task.Title
}

func renderBoard(w io.Writer, kanban models.Kanban, format string) error {
	view := boardView{
		Todo:       newTaskRows(kanban.Todo),
		InProgress: newTaskRows(kanban.InProgress),
		Done:       newTaskRows(kanban.Done),
	}

	switch format {
	case outputJSON:
		return writeJSON(w, view)
	case outputYAML:
		return writeYAML(w, view)
	case outputText:
		columns := []struct {
			name string
			rows []taskRow
		}{
			{"TODO", view.Todo},
			{"IN PROGRESS", view.InProgress},
			{"DONE", view.Done},
		}
		for i, column := range columns {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s (%d)\n", column.name, len(column.rows))
			if err := writeRows(w, column.rows); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderTasks(w io.Writer, tasks []models.Task, format string) error {
	rows := newTaskRows(tasks)
	switch format {
	case outputJSON:
		return writeJSON(w, rows)
	case outputYAML:
		return writeYAML(w, rows)
	case outputText:
		if len(rows) == 0 {
			fmt.Fprintln(w, "No matching tasks")
			return nil
		}
		return writeRows(w, rows)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeRows(w io.Writer, rows []taskRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", row.ID, strings.TrimSpace(row.Code+" "+row.Title), row.Priority, row.Project)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
