package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jotnotes/apiserver/types"
)

var noteColumns = []string{"id", "title", "content", "user_id", "created_at", "updated_at"}

func TestNoteRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNoteRepository(db)

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+notes\s*\(title,\s*content,\s*user_id,\s*created_at,\s*updated_at\).*RETURNING\s+id`).
		WithArgs("a", "b", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))

	note, err := repo.Create(context.Background(), types.Note{Title: "a", Content: "b", UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, 10, note.ID)
	assert.Equal(t, "a", note.Title)
	assert.Equal(t, "b", note.Content)
	assert.Equal(t, note.CreatedAt, note.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepository_ListByOwner(t *testing.T) {
	now := time.Now().UTC()
	q := `(?s)SELECT\s+id,\s*title,\s*content,\s*user_id,\s*created_at,\s*updated_at\s+FROM\s+notes\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+id\s+OFFSET\s+\$2\s+LIMIT\s+\$3`

	t.Run("unbounded", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNoteRepository(db)

		mock.ExpectQuery(q).
			WithArgs(1, 0, nil).
			WillReturnRows(sqlmock.NewRows(noteColumns).
				AddRow(1, "a", "b", 1, now, now).
				AddRow(2, "c", "d", 1, now, now))

		notes, err := repo.ListByOwner(context.Background(), 1, -5, 0)
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, "c", notes[1].Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bounded", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewNoteRepository(db)

		mock.ExpectQuery(q).
			WithArgs(1, 5, int64(10)).
			WillReturnRows(sqlmock.NewRows(noteColumns))

		notes, err := repo.ListByOwner(context.Background(), 1, 5, 10)
		require.NoError(t, err)
		assert.NotNil(t, notes)
		assert.Empty(t, notes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNoteRepository_GetByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNoteRepository(db)
	now := time.Now().UTC()
	q := `(?s)FROM\s+notes\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2`

	mock.ExpectQuery(q).
		WithArgs(3, 1).
		WillReturnRows(sqlmock.NewRows(noteColumns).AddRow(3, "a", "b", 1, now, now))
	note, err := repo.GetByOwner(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, note.ID)
	assert.Equal(t, 1, note.UserID)

	mock.ExpectQuery(q).WithArgs(3, 2).WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByOwner(context.Background(), 2, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNoteRepository_UpdateByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNoteRepository(db)
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	q := `(?s)UPDATE\s+notes\s+SET\s+title\s*=\s*\$1,\s*content\s*=\s*\$2,\s*updated_at\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$4\s+AND\s+user_id\s*=\s*\$5\s+RETURNING\s+created_at`

	mock.ExpectQuery(q).
		WithArgs("new", "body", sqlmock.AnyArg(), 3, 1).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	note, err := repo.UpdateByOwner(context.Background(), types.Note{ID: 3, UserID: 1, Title: "new", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, created, note.CreatedAt)
	assert.Equal(t, "new", note.Title)

	mock.ExpectQuery(q).
		WithArgs("new", "body", sqlmock.AnyArg(), 3, 2).
		WillReturnError(sql.ErrNoRows)
	_, err = repo.UpdateByOwner(context.Background(), types.Note{ID: 3, UserID: 2, Title: "new", Content: "body"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNoteRepository_DeleteByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNoteRepository(db)
	q := `(?s)DELETE\s+FROM\s+notes\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2`

	mock.ExpectExec(q).WithArgs(3, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteByOwner(context.Background(), 1, 3))

	mock.ExpectExec(q).WithArgs(3, 2).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteByOwner(context.Background(), 2, 3), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
