package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps runs in process memory. It is used when no persistent
// backend is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*RunRecord
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[uuid.UUID]*RunRecord)}
}

// SaveRun stores a copy of run
func (m *MemoryStore) SaveRun(ctx context.Context, run *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *run
	m.runs[run.ID] = &stored
	return nil
}

// GetRun returns the run with the given ID
func (m *MemoryStore) GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	copied := *run
	return &copied, nil
}

// ListRuns returns run summaries newest first
func (m *MemoryStore) ListRuns(ctx context.Context, scenario string) ([]RunSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]RunSummary, 0, len(m.runs))
	for _, run := range m.runs {
		if scenario != "" && run.Scenario != scenario {
			continue
		}
		summaries = append(summaries, run.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.After(summaries[j].StartedAt)
	})
	return summaries, nil
}

// Close is a no-op for the memory store
func (m *MemoryStore) Close() error {
	return nil
}
