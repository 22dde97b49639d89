package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"folio/internal/model"
)

// Memory is an in-process store used by tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	content map[string]string
	rows    []model.Row
	saved   bool
	events  []model.Event
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{content: map[string]string{}, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key Key) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.content[key.String()]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key Key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content[key.String()] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.content, key.String())
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.content))
	for k := range m.content {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (m *Memory) LoadRows(context.Context) ([]model.Row, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rows), m.saved, nil
}

func (m *Memory) SaveRows(_ context.Context, rows []model.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = slices.Clone(rows)
	m.saved = true
	return nil
}

func (m *Memory) AppendEvent(_ context.Context, typ, entityID string, payload any) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := model.Event{ID: uuid.NewString(), TS: m.now().UTC(), Type: typ, EntityID: entityID, Payload: payload}
	m.events = append(m.events, ev)
	return ev, nil
}

func (m *Memory) Events(_ context.Context, limit int) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	evs := m.events
	if limit > 0 && len(evs) > limit {
		evs = evs[len(evs)-limit:]
	}
	return slices.Clone(evs), nil
}
