package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jotnotes/apiserver/internal/storage"
	"github.com/jotnotes/apiserver/internal/store"
	"github.com/jotnotes/apiserver/types"
)

const exportContentType = "application/json"

// ObjectStore is the subset of object storage used by exports.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ExportService snapshots a user's notes into object storage.
type ExportService struct {
	notes   NoteRepository
	objects ObjectStore
	now     func() time.Time
}

func NewExportService(notes NoteRepository, objects ObjectStore) *ExportService {
	return &ExportService{
		notes:   notes,
		objects: objects,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ExportKey is the object key of an export. Keys are partitioned by owner
// so an export id is only reachable by the user who created it.
func ExportKey(ownerID int, id string) string {
	return fmt.Sprintf("exports/%d/%s.json", ownerID, id)
}

// Create writes every note owned by user as one JSON document.
func (s *ExportService) Create(ctx context.Context, user types.User) (types.Export, error) {
	notes, err := s.notes.ListByOwner(ctx, user.ID, 0, 0)
	if err != nil {
		return types.Export{}, fmt.Errorf("list notes: %w", err)
	}

	doc := types.ExportDocument{
		ID:        uuid.NewString(),
		Username:  user.Username,
		CreatedAt: s.now(),
		Notes:     notes,
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return types.Export{}, fmt.Errorf("encode export: %w", err)
	}

	key := ExportKey(user.ID, doc.ID)
	if err := s.objects.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), exportContentType); err != nil {
		return types.Export{}, fmt.Errorf("store export: %w", err)
	}

	return types.Export{
		ID:        doc.ID,
		Key:       key,
		NoteCount: len(notes),
		CreatedAt: doc.CreatedAt,
	}, nil
}

// Get returns the raw export document. Unknown, malformed or foreign ids
// are store.ErrNotFound.
func (s *ExportService) Get(ctx context.Context, ownerID int, id string) ([]byte, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	reader, err := s.objects.Get(ctx, ExportKey(ownerID, parsed.String()))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("read export: %w", err)
	}
	return data, nil
}

// Delete removes an export owned by ownerID. Unknown, malformed or foreign
// ids are store.ErrNotFound.
func (s *ExportService) Delete(ctx context.Context, ownerID int, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return store.ErrNotFound
	}
	key := ExportKey(ownerID, parsed.String())

	reader, err := s.objects.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return store.ErrNotFound
		}
		return fmt.Errorf("open export: %w", err)
	}
	_ = reader.Close()

	if err := s.objects.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete export: %w", err)
	}
	return nil
}
