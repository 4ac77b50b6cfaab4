package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajharbinger/intent-signal-hub/internal/intent"
	"github.com/ajharbinger/intent-signal-hub/internal/logger"
	"github.com/ajharbinger/intent-signal-hub/internal/scoring"
	"github.com/ajharbinger/intent-signal-hub/internal/services"
)

// options shared by every subcommand
type options struct {
	profilesFile string
	verbose      bool
}

// NewRootCmd builds the signal-eval command tree
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "signal-eval",
		Short: "Run the intent scoring and classification engines against local files",
		Long: "signal-eval loads signals, snapshots or attributes from JSON files, runs them\n" +
			"through the same engines the server uses and prints the results as JSON.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.profilesFile, "profiles", "", "rule profiles file (YAML or JSON)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log engine activity to stderr")

	root.AddCommand(newScoreCmd(opts))
	root.AddCommand(newClassifyCmd(opts))
	root.AddCommand(newMergeCmd(opts))
	root.AddCommand(newProfilesCmd(opts))
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// newServices builds an isolated engine for one invocation
func (o *options) newServices(cfg intent.Config, errOut io.Writer) (*services.Services, error) {
	var profiles *scoring.ProfileSet
	if o.profilesFile != "" {
		loaded, err := scoring.LoadProfiles(o.profilesFile)
		if err != nil {
			return nil, fmt.Errorf("load profiles: %w", err)
		}
		profiles = loaded
	}

	log := logger.NewNopLogger()
	if o.verbose {
		log = logger.New(errOut, "debug")
	}
	return services.NewServices(services.NewEngine(cfg, profiles), nil, log), nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
