package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajharbinger/intent-signal-hub/internal/attr"
	"github.com/ajharbinger/intent-signal-hub/internal/intent"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

func newClassifyCmd(opts *options) *cobra.Command {
	var (
		attributesFile string
		subjectID      string
	)

	cmd := &cobra.Command{
		Use:       "classify company|contact",
		Short:     "Classify a company against the ICP or a contact against the personas",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(models.EntityCompany), string(models.EntityContact)},
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := models.ParseEntityType(args[0])
			if err != nil {
				return err
			}

			var attrs attr.Map
			if err := readJSON(attributesFile, &attrs); err != nil {
				return err
			}
			if attrs == nil {
				return fmt.Errorf("%s does not contain an attribute object", attributesFile)
			}

			svc, err := opts.newServices(intent.DefaultConfig(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if entityType == models.EntityCompany {
				return writeJSON(cmd.OutOrStdout(), svc.Classification.ClassifyCompany(cmd.Context(), subjectID, attrs))
			}
			return writeJSON(cmd.OutOrStdout(), svc.Classification.ClassifyContact(cmd.Context(), subjectID, attrs))
		},
	}

	cmd.Flags().StringVar(&attributesFile, "attributes", "", "JSON object of attributes")
	cmd.Flags().StringVar(&subjectID, "id", "subject", "subject id reported in the result")
	_ = cmd.MarkFlagRequired("attributes")
	return cmd
}
