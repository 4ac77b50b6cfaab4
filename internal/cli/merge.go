package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajharbinger/intent-signal-hub/internal/attr"
	"github.com/ajharbinger/intent-signal-hub/internal/intent"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

type mergedEntity struct {
	EntityType models.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Attributes attr.Map          `json:"attributes"`
}

func newMergeCmd(opts *options) *cobra.Command {
	var (
		snapshotsFile string
		priority      string
	)

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Replay snapshots in order and print the deltas and merged views",
		RunE: func(cmd *cobra.Command, args []string) error {
			prio, err := models.ParseSource(priority)
			if err != nil {
				return fmt.Errorf("--priority: %w", err)
			}

			var snapshots []models.Snapshot
			if err := readJSON(snapshotsFile, &snapshots); err != nil {
				return err
			}
			for i := range snapshots {
				if snapshots[i].Source, err = models.ParseSource(string(snapshots[i].Source)); err != nil {
					return fmt.Errorf("snapshot %d: %w", i, err)
				}
				if snapshots[i].EntityType, err = models.ParseEntityType(string(snapshots[i].EntityType)); err != nil {
					return fmt.Errorf("snapshot %d: %w", i, err)
				}
			}

			svc, err := opts.newServices(intent.DefaultConfig(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			deltas, err := svc.Enrichment.ProcessBatch(ctx, snapshots)
			if err != nil {
				return err
			}

			seen := make(map[models.SnapshotKey]bool)
			merged := make([]mergedEntity, 0)
			for _, s := range snapshots {
				key := models.SnapshotKey{EntityType: s.EntityType, EntityID: s.EntityID}
				if seen[key] {
					continue
				}
				seen[key] = true

				attrs, err := svc.Enrichment.Merge(ctx, s.EntityType, s.EntityID, prio)
				if err != nil {
					return err
				}
				merged = append(merged, mergedEntity{EntityType: s.EntityType, EntityID: s.EntityID, Attributes: attrs})
			}

			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"deltas": deltas,
				"merged": merged,
			})
		},
	}

	cmd.Flags().StringVar(&snapshotsFile, "snapshots", "", "JSON array of snapshots, replayed in order")
	cmd.Flags().StringVar(&priority, "priority", "B", "source whose values win the merge")
	_ = cmd.MarkFlagRequired("snapshots")
	return cmd
}
