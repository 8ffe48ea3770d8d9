package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jotnotes/apiserver/internal/mq"
	"github.com/jotnotes/apiserver/internal/store"
	"github.com/jotnotes/apiserver/types"
	"go.uber.org/zap"
)

// ImportCreate is the only import event type understood.
const ImportCreate = "create"

type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (types.User, error)
}

type NoteCreator interface {
	Create(ctx context.Context, ownerID int, title, content string) (types.Note, error)
}

// Importer turns import events into notes. Malformed events, unknown types
// and unknown users are logged and acknowledged; storage failures are
// returned so the broker redelivers.
type Importer struct {
	users UserLookup
	notes NoteCreator
	log   *zap.SugaredLogger
}

func NewImporter(users UserLookup, notes NoteCreator, log *zap.SugaredLogger) *Importer {
	return &Importer{users: users, notes: notes, log: log}
}

func (i *Importer) Handle(ctx context.Context, msg mq.Message) error {
	i.log.Infow("import received", "message_id", msg.ID, "bytes", len(msg.Data))

	var event types.ImportEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		i.log.Errorw("import decode", "message_id", msg.ID, "error", err)
		return nil
	}

	switch event.Type {
	case ImportCreate:
	default:
		i.log.Errorw("import unknown event type", "message_id", msg.ID, "type", event.Type)
		return nil
	}

	user, err := i.users.GetByUsername(ctx, event.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			i.log.Errorw("import unknown user", "message_id", msg.ID, "username", event.Username)
			return nil
		}
		return fmt.Errorf("load user %q: %w", event.Username, err)
	}

	note, err := i.notes.Create(ctx, user.ID, event.Data.Title, event.Data.Content)
	if err != nil {
		return fmt.Errorf("create note for %q: %w", event.Username, err)
	}
	i.log.Infow("import created note", "message_id", msg.ID, "note_id", note.ID, "user_id", user.ID)
	return nil
}
