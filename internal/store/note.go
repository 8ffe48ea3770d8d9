package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jotnotes/apiserver/types"
)

// NoteRepository handles persistence for notes. Every read and write
// other than Create is scoped to the owning user.
type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note types.Note) (types.Note, error) {
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now

	const query = `
		INSERT INTO notes (title, content, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		note.Title,
		note.Content,
		note.UserID,
		note.CreatedAt,
		note.UpdatedAt,
	).Scan(&note.ID); err != nil {
		return types.Note{}, err
	}
	return note, nil
}

// ListByOwner returns the owner's notes ordered by id. A limit below one
// returns every note after offset.
func (r *NoteRepository) ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]types.Note, error) {
	if offset < 0 {
		offset = 0
	}
	var limitArg sql.NullInt64
	if limit > 0 {
		limitArg = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	const query = `
		SELECT id, title, content, user_id, created_at, updated_at
		FROM notes
		WHERE user_id = $1
		ORDER BY id
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, ownerID, offset, limitArg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]types.Note, 0)
	for rows.Next() {
		var note types.Note
		if err := rows.Scan(
			&note.ID,
			&note.Title,
			&note.Content,
			&note.UserID,
			&note.CreatedAt,
			&note.UpdatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notes, nil
}

func (r *NoteRepository) GetByOwner(ctx context.Context, ownerID, id int) (types.Note, error) {
	const query = `
		SELECT id, title, content, user_id, created_at, updated_at
		FROM notes
		WHERE id = $1 AND user_id = $2`
	var note types.Note
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&note.ID,
		&note.Title,
		&note.Content,
		&note.UserID,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Note{}, ErrNotFound
		}
		return types.Note{}, err
	}
	return note, nil
}

// UpdateByOwner replaces title and content of an owned note.
func (r *NoteRepository) UpdateByOwner(ctx context.Context, note types.Note) (types.Note, error) {
	note.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE notes
		SET title = $1,
			content = $2,
			updated_at = $3
		WHERE id = $4 AND user_id = $5
		RETURNING created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		note.Title,
		note.Content,
		note.UpdatedAt,
		note.ID,
		note.UserID,
	).Scan(&note.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Note{}, ErrNotFound
		}
		return types.Note{}, err
	}
	return note, nil
}

func (r *NoteRepository) DeleteByOwner(ctx context.Context, ownerID, id int) error {
	const query = `DELETE FROM notes WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
