package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"vinculacion/internal/enrollment/models"
	"vinculacion/pkg/platform/sentinel"
)

// Memory keeps records and integration logs in process. The document-number
// index plays the role of the database unique constraint.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*models.Record
	byDoc  map[string]int64
	logs   map[int64][]*models.LogEntry
}

func NewMemory() *Memory {
	return &Memory{
		byID:  make(map[int64]*models.Record),
		byDoc: make(map[string]int64),
		logs:  make(map[int64][]*models.LogEntry),
	}
}

func (m *Memory) Create(_ context.Context, r *models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byDoc[r.DocumentNumber]; taken {
		return sentinel.ErrAlreadyUsed
	}
	m.nextID++
	r.ID = m.nextID
	m.byID[r.ID] = cloneRecord(r)
	m.byDoc[r.DocumentNumber] = r.ID
	return nil
}

func (m *Memory) FindByID(_ context.Context, id int64) (*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(r), nil
}

func (m *Memory) FindByDocumentNumber(_ context.Context, doc string) (*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byDoc[doc]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(m.byID[id]), nil
}

// FindByProviderCaseID returns the most recently created record for the case.
func (m *Memory) FindByProviderCaseID(_ context.Context, caseID string) (*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *models.Record
	for _, r := range m.byID {
		if caseID == "" || r.ProviderCaseID != caseID {
			continue
		}
		if found == nil || r.CreatedAt.After(found.CreatedAt) {
			found = r
		}
	}
	if found == nil {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(found), nil
}

func (m *Memory) Update(_ context.Context, r *models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.byID[r.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.DocumentNumber != r.DocumentNumber {
		if _, taken := m.byDoc[r.DocumentNumber]; taken {
			return sentinel.ErrAlreadyUsed
		}
		delete(m.byDoc, current.DocumentNumber)
		m.byDoc[r.DocumentNumber] = r.ID
	}
	m.byID[r.ID] = cloneRecord(r)
	return nil
}

func (m *Memory) List(_ context.Context, f models.RecordFilter) ([]*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Record
	for _, r := range m.byID {
		if f.Matches(r) {
			out = append(out, cloneRecord(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// RunInTx runs fn directly; each Memory call is already atomic.
func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *Memory) Append(_ context.Context, e *models.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[e.RecordID]; !ok {
		return sentinel.ErrNotFound
	}
	entry := *e
	m.logs[e.RecordID] = append(m.logs[e.RecordID], &entry)
	return nil
}

func (m *Memory) ListByRecord(_ context.Context, recordID int64) ([]*models.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.logs[recordID]
	out := make([]*models.LogEntry, 0, len(entries))
	for _, e := range entries {
		entry := *e
		out = append(out, &entry)
	}
	return out, nil
}

func cloneRecord(r *models.Record) *models.Record {
	c := *r
	c.CoreBankingPayload = slices.Clone(r.CoreBankingPayload)
	c.BiometricDecidedAt = cloneTime(r.BiometricDecidedAt)
	c.RedirectedAt = cloneTime(r.RedirectedAt)
	c.CompletedAt = cloneTime(r.CompletedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
