package intent

import (
	"sync"

	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

// Baseline holds the most recently computed score per entity. It is the
// "previous" value for trend and spike comparison and is written only by
// the Calculator.
type Baseline struct {
	mu     sync.RWMutex
	scores map[string]models.UnifiedScore
}

// NewBaseline creates an empty baseline cache
func NewBaseline() *Baseline {
	return &Baseline{
		scores: make(map[string]models.UnifiedScore),
	}
}

// Get returns the cached score for an entity
func (b *Baseline) Get(entityID string) (models.UnifiedScore, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	score, ok := b.scores[entityID]
	return score, ok
}

// Len returns the number of cached entities
func (b *Baseline) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.scores)
}

// Reset clears every cached score
func (b *Baseline) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scores = make(map[string]models.UnifiedScore)
}

func (b *Baseline) put(score models.UnifiedScore) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scores[score.EntityID] = score
}

// entityLocks hands out one mutex per entity so concurrent computations for
// the same entity cannot interleave their baseline read-modify-write.
type entityLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newEntityLocks() *entityLocks {
	return &entityLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *entityLocks) lock(entityID string) func() {
	l.mu.Lock()
	m, ok := l.locks[entityID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[entityID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (l *entityLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *entityLocks) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locks = make(map[string]*sync.Mutex)
}
