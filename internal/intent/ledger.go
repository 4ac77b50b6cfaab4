package intent

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

// Ledger is the append-only, per-entity ordered record of signals. It
// performs no scoring; the Calculator reads from it.
type Ledger struct {
	mu       sync.RWMutex
	byEntity map[string][]models.Signal
	order    []string
	count    int
}

// NewLedger creates an empty signal ledger
func NewLedger() *Ledger {
	return &Ledger{
		byEntity: make(map[string][]models.Signal),
	}
}

// Append records one signal and returns the stored copy. Missing IDs and
// timestamps are filled in and strength is clamped to [0,100].
func (l *Ledger) Append(signal models.Signal) models.Signal {
	stored := normalizeSignal(signal)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, seen := l.byEntity[stored.EntityID]; !seen {
		l.order = append(l.order, stored.EntityID)
	}
	l.byEntity[stored.EntityID] = append(l.byEntity[stored.EntityID], stored)
	l.count++
	return stored
}

// AppendBatch records signals one by one in input order. It is not
// transactional: each element is independent.
func (l *Ledger) AppendBatch(signals []models.Signal) []models.Signal {
	stored := make([]models.Signal, 0, len(signals))
	for _, s := range signals {
		stored = append(stored, l.Append(s))
	}
	return stored
}

// Signals returns a copy of the entity's signals in append order
func (l *Ledger) Signals(entityID string) []models.Signal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	src := l.byEntity[entityID]
	if len(src) == 0 {
		return nil
	}
	out := make([]models.Signal, len(src))
	copy(out, src)
	return out
}

// Has reports whether the entity has at least one signal
func (l *Ledger) Has(entityID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byEntity[entityID]) > 0
}

// EntityIDs returns every entity with at least one signal, in first-seen order
func (l *Ledger) EntityIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Count returns the total number of recorded signals
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Reset drops every recorded signal
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.byEntity = make(map[string][]models.Signal)
	l.order = nil
	l.count = 0
}

func normalizeSignal(s models.Signal) models.Signal {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.ObservedAt.IsZero() {
		s.ObservedAt = time.Now()
	}
	s.Strength = clamp(s.Strength, 0, 100)
	return s
}
