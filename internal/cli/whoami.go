package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nhle/taskstate/internal/persist"
)

type whoamiResult struct {
	LoggedIn  bool   `json:"loggedIn"`
	ID        string `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// NewWhoamiCommand creates the whoami command, which prints the stored
// identity.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print the stored identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, "text", "json"); err != nil {
				return err
			}
			rt, done, err := openRuntime(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer done()

			var res whoamiResult
			if u := rt.Persist.LoadIdentity(cmd.Context()); u != nil {
				res = whoamiResult{
					LoggedIn:  true,
					ID:        u.ID,
					Email:     u.Email,
					Name:      u.Name,
					CreatedAt: persist.FormatTime(u.CreatedAt),
				}
			}

			out := &OutputFormatter{Format: format, Writer: cmd.OutOrStdout()}
			return out.Write(res, func(w io.Writer) error {
				if !res.LoggedIn {
					_, err := fmt.Fprintln(w, "not logged in")
					return err
				}
				_, err := fmt.Fprintf(w, "%s <%s> (%s)\n", res.Name, res.Email, res.ID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format (text|json)")
	return cmd
}
