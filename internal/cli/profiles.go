package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajharbinger/intent-signal-hub/internal/scoring"
)

func newProfilesCmd(opts *options) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Validate a rule profiles file, or print the built-in profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = opts.profilesFile
			}
			if file == "" {
				return writeJSON(cmd.OutOrStdout(), scoring.DefaultProfileSet())
			}

			set, err := scoring.LoadProfiles(file)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: valid\n", file)
			fmt.Fprintf(out, "  icp %q: %d criteria, total weight %.2f\n", set.ICP.Name, len(set.ICP.Criteria), set.ICP.TotalWeight())
			for _, p := range set.Personas {
				fmt.Fprintf(out, "  persona %q: %d criteria, total weight %.2f\n", p.Name, len(p.Criteria), p.TotalWeight())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "profiles file to validate")
	return cmd
}
