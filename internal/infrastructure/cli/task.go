package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/smarttodo/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/smarttodo/pkg/application"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
)

var (
	taskDescription string
	taskCategory    string
	taskPriority    int
	taskDeadline    string
	taskStatus      string
	taskSearch      string
	taskLimit       int
)

var statusStyles = map[task.Status]lipgloss.Style{
	task.StatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	task.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	task.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := application.TaskInput{
			Title:         strings.Join(args, " "),
			Description:   taskDescription,
			Category:      taskCategory,
			PriorityScore: taskPriority,
		}
		if taskDeadline != "" {
			deadline, err := time.Parse(time.RFC3339, taskDeadline)
			if err != nil {
				return NewCLIError("invalid deadline", "Use RFC 3339, e.g. 2025-06-30T17:00:00Z", err)
			}
			in.Deadline = &deadline
		}
		return withApp(cmd, func(app *wiring.App) error {
			t, err := app.Tasks.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printTask(cmd.OutOrStdout(), *t)
		})
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks by priority",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := task.TaskFilter{Category: taskCategory, Search: taskSearch, Page: task.Page{Limit: taskLimit}}
		if taskStatus != "" {
			status, err := task.ParseStatus(taskStatus)
			if err != nil {
				return MapError(err)
			}
			filter.Status = status
		}
		return withApp(cmd, func(app *wiring.App) error {
			tasks, err := app.Tasks.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, tasks)
			}
			_, err = fmt.Fprintln(out, renderTaskTable(tasks, time.Now()))
			return err
		})
	},
}

// statusCommand builds a command that moves a task to target.
func statusCommand(use, short string, target task.Status) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(app *wiring.App) error {
				t, err := app.Tasks.Update(cmd.Context(), args[0], application.TaskUpdate{Status: &target})
				if err != nil {
					return err
				}
				return printTask(cmd.OutOrStdout(), *t)
			})
		},
	}
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *wiring.App) error {
			if err := app.Tasks.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return err
		})
	},
}

var taskApplyCmd = &cobra.Command{
	Use:   "apply <id>",
	Short: "Generate a suggestion for a stored task and apply it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *wiring.App) error {
			t, result, err := app.Tasks.ApplySuggestion(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, map[string]any{
					"task":       t,
					"suggestion": result.Suggestion,
					"source":     result.Source,
				})
			}
			_, err = fmt.Fprintln(out, renderSuggestion(t.Title, result))
			return err
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *wiring.App) error {
			stats, err := app.Tasks.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, stats)
			}
			_, err = fmt.Fprintln(out, renderStatistics(stats))
			return err
		})
	},
}

func printTask(w io.Writer, t task.Task) error {
	if jsonOutput {
		return writeJSON(w, t.View(time.Now()))
	}
	_, err := fmt.Fprintf(w, "%s %s %s\n",
		mutedStyle.Render(t.ID),
		statusStyles[t.Status].Render(string(t.Status)),
		priorityStyle(t.PriorityScore).Render(strconv.Itoa(t.PriorityScore))+" "+t.Title)
	return err
}

func renderTaskTable(tasks []task.Task, now time.Time) string {
	if len(tasks) == 0 {
		return mutedStyle.Render("No tasks.")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render("PRIORITY"),
		labelStyle.Render("STATUS"),
		labelStyle.Render("DEADLINE"),
		lipgloss.NewStyle().Bold(true).Render("TITLE"),
	)
	lines := []string{header}
	for _, t := range tasks {
		deadline := "-"
		if t.Deadline != nil {
			deadline = t.Deadline.Local().Format("Jan 02 15:04")
			if t.IsOverdue(now) {
				deadline = errorStyle.Render(deadline)
			}
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(14).Render(priorityStyle(t.PriorityScore).Render(fmt.Sprintf("%d %s", t.PriorityScore, t.PriorityLabel()))),
			lipgloss.NewStyle().Width(14).Render(statusStyles[t.Status].Render(string(t.Status))),
			lipgloss.NewStyle().Width(14).Render(deadline),
			t.Title,
		))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderStatistics(s task.Statistics) string {
	categories := mutedStyle.Render("none")
	if len(s.Categories) > 0 {
		categories = strings.Join(s.Categories, ", ")
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		row("Total", strconv.Itoa(s.Total)),
		row("Pending", strconv.Itoa(s.Pending)),
		row("In progress", strconv.Itoa(s.InProgress)),
		row("Completed", strconv.Itoa(s.Completed)),
		row("Overdue", strconv.Itoa(s.Overdue)),
		row("High priority", strconv.Itoa(s.HighPriority)),
		row("Avg priority", fmt.Sprintf("%.2f", s.AveragePriority)),
		row("Categories", categories),
	)
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Task statistics"), boxStyle.Render(body))
}

func init() {
	taskAddCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "Task description")
	taskAddCmd.Flags().StringVarP(&taskCategory, "category", "c", "", "Task category")
	taskAddCmd.Flags().IntVarP(&taskPriority, "priority", "p", 0, "Priority 1-10 (default 5)")
	taskAddCmd.Flags().StringVar(&taskDeadline, "deadline", "", "Deadline in RFC 3339")

	taskListCmd.Flags().StringVar(&taskStatus, "status", "", "Filter by status (pending, in_progress, completed)")
	taskListCmd.Flags().StringVarP(&taskCategory, "category", "c", "", "Filter by category")
	taskListCmd.Flags().StringVar(&taskSearch, "search", "", "Search title and description")
	taskListCmd.Flags().IntVar(&taskLimit, "limit", task.DefaultLimit, "Maximum tasks to show")

	taskCmd.AddCommand(
		taskAddCmd,
		taskListCmd,
		statusCommand("start", "Start working on a task", task.StatusInProgress),
		statusCommand("done", "Mark a task completed", task.StatusCompleted),
		statusCommand("reopen", "Move a task back to pending", task.StatusPending),
		taskDeleteCmd,
		taskApplyCmd,
	)
	RootCmd.AddCommand(taskCmd, statsCmd)
}
