package api

import (
	"time"

	"github.com/ajharbinger/intent-signal-hub/internal/attr"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

// SignalRequest is the wire form of one intent signal
type SignalRequest struct {
	Source     string     `json:"source" binding:"required,oneof=A B a b"`
	EntityID   string     `json:"entity_id" binding:"required,max=256"`
	EntityName string     `json:"entity_name" binding:"max=512"`
	Topic      string     `json:"topic" binding:"required,max=256"`
	Strength   *float64   `json:"strength" binding:"required,gte=0,lte=100"`
	ObservedAt *time.Time `json:"observed_at"`
	Domain     string     `json:"domain" binding:"max=256"`
}

// SignalBatchRequest wraps a batch of signals
type SignalBatchRequest struct {
	Signals []SignalRequest `json:"signals" binding:"required,min=1,max=10000,dive"`
}

// SnapshotRequest is the wire form of one provider snapshot
type SnapshotRequest struct {
	EntityType string     `json:"entity_type" binding:"required,oneof=company contact"`
	EntityID   string     `json:"entity_id" binding:"required,max=256"`
	Source     string     `json:"source" binding:"required,oneof=A B a b"`
	Attributes attr.Map   `json:"attributes" binding:"required"`
	ObservedAt *time.Time `json:"observed_at"`
}

// SnapshotBatchRequest wraps a batch of snapshots
type SnapshotBatchRequest struct {
	Snapshots []SnapshotRequest `json:"snapshots" binding:"required,min=1,max=10000,dive"`
}

// ClassifyRequest carries the attributes of one company or contact
type ClassifyRequest struct {
	SubjectID  string   `json:"subject_id" binding:"required,max=256"`
	Attributes attr.Map `json:"attributes"`
}

// ToSignal converts the request into a ledger signal
func (r SignalRequest) ToSignal() models.Signal {
	source, _ := models.ParseSource(r.Source)
	signal := models.Signal{
		Source:     source,
		EntityID:   r.EntityID,
		EntityName: r.EntityName,
		Topic:      r.Topic,
		Domain:     r.Domain,
	}
	if r.Strength != nil {
		signal.Strength = *r.Strength
	}
	if r.ObservedAt != nil {
		signal.ObservedAt = *r.ObservedAt
	}
	return signal
}

// ToSnapshot converts the request into a ledger snapshot
func (r SnapshotRequest) ToSnapshot() models.Snapshot {
	source, _ := models.ParseSource(r.Source)
	entityType, _ := models.ParseEntityType(r.EntityType)
	snapshot := models.Snapshot{
		EntityType: entityType,
		EntityID:   r.EntityID,
		Source:     source,
		Attributes: r.Attributes,
	}
	if r.ObservedAt != nil {
		snapshot.ObservedAt = *r.ObservedAt
	}
	return snapshot
}
