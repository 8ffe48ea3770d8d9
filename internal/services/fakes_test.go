package services

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/jotnotes/apiserver/internal/storage"
	"github.com/jotnotes/apiserver/internal/store"
	"github.com/jotnotes/apiserver/types"
)

type memUsers struct {
	mu     sync.Mutex
	nextID int
	byName map[string]types.User
}

func newMemUsers() *memUsers {
	return &memUsers{byName: make(map[string]types.User)}
}

func (m *memUsers) GetByID(_ context.Context, id int) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byName {
		if user.ID == id {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byName[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[user.Username]; ok {
		return types.User{}, store.ErrDuplicate
	}
	m.nextID++
	user.ID = m.nextID
	m.byName[user.Username] = user
	return user, nil
}

type memNotes struct {
	mu     sync.Mutex
	nextID int
	notes  map[int]types.Note
}

func newMemNotes() *memNotes {
	return &memNotes{notes: make(map[int]types.Note)}
}

func (m *memNotes) Create(_ context.Context, note types.Note) (types.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	note.ID = m.nextID
	m.notes[note.ID] = note
	return note, nil
}

func (m *memNotes) ListByOwner(_ context.Context, ownerID, offset, limit int) ([]types.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Note, 0)
	for _, note := range m.notes {
		if note.UserID == ownerID {
			out = append(out, note)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memNotes) GetByOwner(_ context.Context, ownerID, id int) (types.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	note, ok := m.notes[id]
	if !ok || note.UserID != ownerID {
		return types.Note{}, store.ErrNotFound
	}
	return note, nil
}

func (m *memNotes) UpdateByOwner(_ context.Context, note types.Note) (types.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.notes[note.ID]
	if !ok || existing.UserID != note.UserID {
		return types.Note{}, store.ErrNotFound
	}
	existing.Title = note.Title
	existing.Content = note.Content
	m.notes[note.ID] = existing
	return existing, nil
}

func (m *memNotes) DeleteByOwner(_ context.Context, ownerID, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	note, ok := m.notes[id]
	if !ok || note.UserID != ownerID {
		return store.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

type recordingCache struct {
	entries     map[[2]int]types.Note
	invalidated [][2]int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[[2]int]types.Note)}
}

func (c *recordingCache) Get(_ context.Context, ownerID, id int) (types.Note, bool) {
	note, ok := c.entries[[2]int{ownerID, id}]
	return note, ok
}

func (c *recordingCache) Set(_ context.Context, note types.Note) {
	c.entries[[2]int{note.UserID, note.ID}] = note
}

func (c *recordingCache) Invalidate(_ context.Context, ownerID, id int) {
	delete(c.entries, [2]int{ownerID, id})
	c.invalidated = append(c.invalidated, [2]int{ownerID, id})
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ types.Note) {
	p.events = append(p.events, eventType)
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte)}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}
