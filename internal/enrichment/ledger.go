package enrichment

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/intent-signal-hub/internal/attr"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

// TrackableFields are the attributes whose changes produce deltas, in the
// order changes are reported.
var TrackableFields = []string{
	"name",
	"domain",
	"industry",
	"employeeCount",
	"annualRevenue",
	"country",
	"city",
	"technologies",
	"fundingStage",
	"jobTitle",
	"seniority",
	"department",
	"email",
	"phone",
	"linkedinUrl",
}

// Ledger keeps the latest snapshot per (entity type, entity id, source)
// and diffs each replacement against its predecessor.
type Ledger struct {
	mu        sync.RWMutex
	snapshots map[models.SnapshotKey]models.Snapshot
	fields    []string
	now       func() time.Time
}

// NewLedger creates an empty enrichment ledger tracking TrackableFields
func NewLedger() *Ledger {
	return &Ledger{
		snapshots: make(map[models.SnapshotKey]models.Snapshot),
		fields:    TrackableFields,
		now:       time.Now,
	}
}

// WithClock overrides the clock used to stamp deltas
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// StoreSnapshot replaces the stored snapshot for the key and returns the
// resulting delta. The first snapshot for a key never yields a delta, and
// neither does a replacement with no trackable-field changes.
func (l *Ledger) StoreSnapshot(snapshot models.Snapshot) (*models.Delta, bool) {
	if snapshot.Attributes == nil {
		snapshot.Attributes = attr.Map{}
	} else {
		snapshot.Attributes = snapshot.Attributes.Clone()
	}
	if snapshot.ObservedAt.IsZero() {
		snapshot.ObservedAt = l.now()
	}

	l.mu.Lock()
	previous, existed := l.snapshots[snapshot.Key()]
	l.snapshots[snapshot.Key()] = snapshot
	l.mu.Unlock()

	if !existed {
		return nil, false
	}

	changes := Diff(previous.Attributes, snapshot.Attributes, l.fields)
	if len(changes) == 0 {
		return nil, false
	}

	return &models.Delta{
		ID:         uuid.New(),
		EntityType: snapshot.EntityType,
		EntityID:   snapshot.EntityID,
		Source:     snapshot.Source,
		Changes:    changes,
		ComputedAt: l.now(),
	}, true
}

// ProcessBatch stores each snapshot in input order and returns only the
// deltas that were produced, preserving that order.
func (l *Ledger) ProcessBatch(snapshots []models.Snapshot) []models.Delta {
	var deltas []models.Delta
	for _, s := range snapshots {
		if delta, ok := l.StoreSnapshot(s); ok {
			deltas = append(deltas, *delta)
		}
	}
	return deltas
}

// Snapshot returns the stored snapshot for one key
func (l *Ledger) Snapshot(entityType models.EntityType, entityID string, source models.Source) (models.Snapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.snapshots[models.SnapshotKey{EntityType: entityType, EntityID: entityID, Source: source}]
	return s, ok
}

// Snapshots returns every stored snapshot for an entity, source A first
func (l *Ledger) Snapshots(entityType models.EntityType, entityID string) []models.Snapshot {
	var out []models.Snapshot
	for _, src := range models.Sources {
		if s, ok := l.Snapshot(entityType, entityID, src); ok {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of stored snapshots
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.snapshots)
}

// Reset drops every stored snapshot
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshots = make(map[models.SnapshotKey]models.Snapshot)
}

// Diff compares two attribute maps over fields, in field order
func Diff(old, updated attr.Map, fields []string) []models.FieldChange {
	var changes []models.FieldChange
	for _, field := range fields {
		before := old.Get(field)
		after := updated.Get(field)
		if before.Equal(after) {
			continue
		}
		changes = append(changes, models.FieldChange{
			Field:    field,
			OldValue: before,
			NewValue: after,
		})
	}
	return changes
}
