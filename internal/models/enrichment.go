package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/intent-signal-hub/internal/attr"
)

// Snapshot is the latest attribute set a provider reported for an entity
type Snapshot struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Source     Source     `json:"source"`
	Attributes attr.Map   `json:"attributes"`
	ObservedAt time.Time  `json:"observed_at"`
}

// SnapshotKey identifies the single stored snapshot slot
type SnapshotKey struct {
	EntityType EntityType
	EntityID   string
	Source     Source
}

// Key returns the storage key for the snapshot
func (s Snapshot) Key() SnapshotKey {
	return SnapshotKey{EntityType: s.EntityType, EntityID: s.EntityID, Source: s.Source}
}

// FieldChange records one trackable field that differs between snapshots
type FieldChange struct {
	Field    string     `json:"field"`
	OldValue attr.Value `json:"old_value"`
	NewValue attr.Value `json:"new_value"`
}

// Delta is the set of field changes produced by a snapshot replacement
type Delta struct {
	ID         uuid.UUID     `json:"id"`
	EntityType EntityType    `json:"entity_type"`
	EntityID   string        `json:"entity_id"`
	Source     Source        `json:"source"`
	Changes    []FieldChange `json:"changes"`
	ComputedAt time.Time     `json:"computed_at"`
}

// ChangedFields returns the field names in declaration order
func (d Delta) ChangedFields() []string {
	fields := make([]string, len(d.Changes))
	for i, c := range d.Changes {
		fields[i] = c.Field
	}
	return fields
}
