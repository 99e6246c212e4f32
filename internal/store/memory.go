package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/bugtriage/pkg/models"
)

// Memory is an in-process Store. Results are lost when the process exits.
type Memory struct {
	mu      sync.RWMutex
	results map[string]models.StoredResult
	seq     map[string]int
	next    int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		results: make(map[string]models.StoredResult),
		seq:     make(map[string]int),
	}
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// Create stores a copy of r under a new UUID.
func (m *Memory) Create(_ context.Context, fingerprint string, r *models.TriageResult) (*models.StoredResult, error) {
	stored := models.StoredResult{
		ID:           uuid.New().String(),
		CreatedAt:    time.Now().UTC(),
		Fingerprint:  fingerprint,
		TriageResult: *r,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[stored.ID] = stored
	m.seq[stored.ID] = m.next
	m.next++

	return &stored, nil
}

// Get retrieves a result by id.
func (m *Memory) Get(_ context.Context, id string) (*models.StoredResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.results[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &res, nil
}

// List returns up to limit results newest first, skipping offset.
func (m *Memory) List(_ context.Context, limit, offset int) ([]models.StoredResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	m.mu.RLock()
	all := make([]models.StoredResult, 0, len(m.results))
	for _, r := range m.results {
		all = append(all, r)
	}
	seq := make(map[string]int, len(m.seq))
	for id, n := range m.seq {
		seq[id] = n
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return seq[all[i].ID] > seq[all[j].ID]
	})

	if offset >= len(all) {
		return []models.StoredResult{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// Delete removes a result by id.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[id]; !ok {
		return ErrNotFound
	}
	delete(m.results, id)
	delete(m.seq, id)
	return nil
}

// Count returns the number of stored results.
func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results), nil
}

// HasSimilar reports whether a result with the same fingerprint is stored.
func (m *Memory) HasSimilar(_ context.Context, fingerprint string) (bool, error) {
	if fingerprint == "" {
		return false, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.results {
		if r.Fingerprint == fingerprint {
			return true, nil
		}
	}
	return false, nil
}
