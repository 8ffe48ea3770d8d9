package services

import (
	"context"
	"fmt"

	"github.com/jotnotes/apiserver/types"
)

// MaxListLimit bounds the page size accepted by List.
const MaxListLimit = 1000

// Note event types.
const (
	EventNoteCreated = "note.created"
	EventNoteUpdated = "note.updated"
	EventNoteDeleted = "note.deleted"
)

// NoteRepository defines owner scoped persistence operations for notes.
type NoteRepository interface {
	Create(ctx context.Context, note types.Note) (types.Note, error)
	ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]types.Note, error)
	GetByOwner(ctx context.Context, ownerID, id int) (types.Note, error)
	UpdateByOwner(ctx context.Context, note types.Note) (types.Note, error)
	DeleteByOwner(ctx context.Context, ownerID, id int) error
}

// NoteCache is a best effort read cache. Implementations log their own
// failures; a miss is never an error.
type NoteCache interface {
	Get(ctx context.Context, ownerID, id int) (types.Note, bool)
	Set(ctx context.Context, note types.Note)
	Invalidate(ctx context.Context, ownerID, id int)
}

// EventPublisher announces note writes. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, note types.Note)
}

// NoteService encapsulates note use-cases.
type NoteService struct {
	repo   NoteRepository
	cache  NoteCache
	events EventPublisher
}

type NoteOption func(*NoteService)

func WithNoteCache(cache NoteCache) NoteOption {
	return func(s *NoteService) {
		if cache != nil {
			s.cache = cache
		}
	}
}

func WithEventPublisher(events EventPublisher) NoteOption {
	return func(s *NoteService) {
		if events != nil {
			s.events = events
		}
	}
}

func NewNoteService(repo NoteRepository, opts ...NoteOption) *NoteService {
	s := &NoteService{
		repo:   repo,
		cache:  nopCache{},
		events: nopPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *NoteService) Create(ctx context.Context, ownerID int, title, content string) (types.Note, error) {
	note, err := s.repo.Create(ctx, types.Note{
		Title:   title,
		Content: content,
		UserID:  ownerID,
	})
	if err != nil {
		return types.Note{}, err
	}
	s.events.Publish(ctx, EventNoteCreated, note)
	return note, nil
}

// List returns the owner's notes. A limit of zero means no limit.
func (s *NoteService) List(ctx context.Context, ownerID, skip, limit int) ([]types.Note, error) {
	if skip < 0 || limit < 0 || limit > MaxListLimit {
		return nil, fmt.Errorf("%w: skip must be >= 0 and limit between 0 and %d", ErrInvalidInput, MaxListLimit)
	}
	return s.repo.ListByOwner(ctx, ownerID, skip, limit)
}

// Get returns an owned note. store.ErrNotFound covers both missing and
// foreign notes.
func (s *NoteService) Get(ctx context.Context, ownerID, id int) (types.Note, error) {
	if note, ok := s.cache.Get(ctx, ownerID, id); ok {
		return note, nil
	}
	note, err := s.repo.GetByOwner(ctx, ownerID, id)
	if err != nil {
		return types.Note{}, err
	}
	s.cache.Set(ctx, note)
	return note, nil
}

func (s *NoteService) Update(ctx context.Context, ownerID, id int, title, content string) (types.Note, error) {
	note, err := s.repo.UpdateByOwner(ctx, types.Note{
		ID:      id,
		Title:   title,
		Content: content,
		UserID:  ownerID,
	})
	if err != nil {
		return types.Note{}, err
	}
	s.cache.Invalidate(ctx, ownerID, id)
	s.events.Publish(ctx, EventNoteUpdated, note)
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, ownerID, id int) error {
	if err := s.repo.DeleteByOwner(ctx, ownerID, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, ownerID, id)
	s.events.Publish(ctx, EventNoteDeleted, types.Note{ID: id, UserID: ownerID})
	return nil
}

type nopCache struct{}

func (nopCache) Get(context.Context, int, int) (types.Note, bool) { return types.Note{}, false }
func (nopCache) Set(context.Context, types.Note)                  {}
func (nopCache) Invalidate(context.Context, int, int)             {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, types.Note) {}
