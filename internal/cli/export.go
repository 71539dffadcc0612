package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/persist"
)

type exportTask struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Priority    int    `json:"priority" yaml:"priority"`
	DueDate     string `json:"dueDate" yaml:"dueDate"`
	Completed   bool   `json:"completed" yaml:"completed"`
	CreatedAt   string `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   string `json:"updatedAt" yaml:"updatedAt"`
}

type exportResult struct {
	UserID string       `json:"userId" yaml:"userId"`
	Tasks  []exportTask `json:"tasks" yaml:"tasks"`
}

func newExportResult(userID string, tasks []model.Task) exportResult {
	res := exportResult{UserID: userID, Tasks: make([]exportTask, 0, len(tasks))}
	for _, t := range tasks {
		res.Tasks = append(res.Tasks, exportTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Priority:    t.Priority,
			DueDate:     persist.FormatTime(t.DueDate),
			Completed:   t.Completed,
			CreatedAt:   persist.FormatTime(t.CreatedAt),
			UpdatedAt:   persist.FormatTime(t.UpdatedAt),
		})
	}
	return res
}

// NewExportCommand creates the export command, which prints one user's
// stored tasks.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		userID string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a user's stored tasks",
		Long:  "Print the stored task partition of --user, or of the logged-in user when --user is omitted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, "json", "yaml"); err != nil {
				return err
			}
			rt, done, err := openRuntime(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer done()

			ctx := cmd.Context()
			if userID == "" {
				u := rt.Persist.LoadIdentity(ctx)
				if u == nil {
					return NewExitError(ExitCommandError, "not logged in: pass --user")
				}
				userID = u.ID
			}

			tasks, err := rt.Persist.LoadTasks(ctx, userID)
			if err != nil {
				return WrapExitError(ExitFailure, "reading tasks", err)
			}

			out := &OutputFormatter{Format: format, Writer: cmd.OutOrStdout()}
			return out.Write(newExportResult(userID, tasks), func(io.Writer) error { return nil })
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (default: the logged-in user)")
	cmd.Flags().StringVar(&format, "format", "json", "output format (json|yaml)")
	return cmd
}
