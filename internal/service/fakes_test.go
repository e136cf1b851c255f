package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"

	"board/internal/domain"
)

var errBoom = errors.New("boom")

// memStore is an in-memory implementation of every domain store.
type memStore struct {
	mu       sync.Mutex
	boards   map[string]domain.Board
	elements map[string]domain.Element
	blocks   map[string]domain.MaterialBlock
	views    map[string]domain.ViewRecord
	settings map[string]string

	failCreate bool
	failList   bool
	calls      []string
}

func newMemStore() *memStore {
	return &memStore{
		boards:   map[string]domain.Board{},
		elements: map[string]domain.Element{},
		blocks:   map[string]domain.MaterialBlock{},
		views:    map[string]domain.ViewRecord{},
		settings: map[string]string{},
	}
}

func (m *memStore) record(op string) {
	m.calls = append(m.calls, op)
}

func (m *memStore) CreateBoard(_ context.Context, b *domain.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards[b.ID] = *b
	return nil
}

func (m *memStore) GetBoard(_ context.Context, id string) (*domain.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (m *memStore) ListBoards(context.Context) ([]domain.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Board
	for _, b := range m.boards {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) RenameBoard(_ context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Name = name
	m.boards[id] = b
	return nil
}

func (m *memStore) DeleteBoard(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.boards, id)
	for k, e := range m.elements {
		if e.BoardID == id {
			delete(m.elements, k)
		}
	}
	return nil
}

func (m *memStore) ListElements(_ context.Context, boardID string) ([]domain.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList {
		return nil, errBoom
	}
	var out []domain.Element
	for _, e := range m.elements {
		if e.BoardID == boardID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateElement(_ context.Context, e *domain.Element) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("create " + e.ID)
	if m.failCreate {
		return errBoom
	}
	m.elements[e.ID] = e.Clone()
	return nil
}

func (m *memStore) UpdateElement(_ context.Context, id string, p domain.ElementPatch) (*domain.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("update " + id)
	e, ok := m.elements[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Apply(&e)
	m.elements[id] = e
	out := e.Clone()
	return &out, nil
}

func (m *memStore) DeleteElement(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("delete " + id)
	delete(m.elements, id)
	return nil
}

func (m *memStore) ListBlocks(_ context.Context, boardID string) ([]domain.MaterialBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.MaterialBlock
	for _, b := range m.blocks {
		if b.BoardID == boardID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) CreateBlock(_ context.Context, b *domain.MaterialBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("create-block " + b.ID)
	m.blocks[b.ID] = *b
	return nil
}

func (m *memStore) UpdateBlock(_ context.Context, id string, p domain.BlockPatch) (*domain.MaterialBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("update-block " + id)
	b, ok := m.blocks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Apply(&b)
	m.blocks[id] = b
	return &b, nil
}

func (m *memStore) DeleteBlock(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("delete-block " + id)
	delete(m.blocks, id)
	return nil
}

func (m *memStore) LoadView(_ context.Context, boardID string) (*domain.ViewRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.views[boardID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memStore) SaveView(_ context.Context, boardID string, r domain.ViewRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[boardID] = r
	return nil
}

func (m *memStore) GetSetting(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.settings[key]
	return v, ok, nil
}

func (m *memStore) SetSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *memStore) element(id string) (domain.Element, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.elements[id]
	return e, ok
}

func (m *memStore) elementCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.elements)
}
