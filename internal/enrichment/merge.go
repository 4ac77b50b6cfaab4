package enrichment

import (
	"github.com/ajharbinger/intent-signal-hub/internal/attr"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

// DefaultPriority is the provider whose populated values win a merge
const DefaultPriority = models.SourceB

// Merge folds the entity's stored snapshots into one attribute view
func (l *Ledger) Merge(entityType models.EntityType, entityID string, priority models.Source) attr.Map {
	return MergeSnapshots(l.Snapshots(entityType, entityID), priority)
}

// MergeSnapshots starts from the non-priority source's attributes and
// overlays the priority source's. Absent and empty-string priority values
// never blank out a populated secondary value. An invalid priority falls
// back to DefaultPriority.
func MergeSnapshots(snapshots []models.Snapshot, priority models.Source) attr.Map {
	if !priority.IsValid() {
		priority = DefaultPriority
	}

	var primary, secondary *models.Snapshot
	for i := range snapshots {
		switch snapshots[i].Source {
		case priority:
			primary = &snapshots[i]
		case priority.Other():
			secondary = &snapshots[i]
		}
	}

	merged := attr.Map{}
	if secondary != nil {
		for k, v := range secondary.Attributes {
			merged[k] = v
		}
	}
	if primary == nil {
		return merged
	}

	for k, v := range primary.Attributes {
		if v.IsEmpty() {
			if _, present := merged[k]; !present {
				merged[k] = v
			}
			continue
		}
		merged[k] = v
	}
	return merged
}
