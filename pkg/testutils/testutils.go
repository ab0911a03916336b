// Package testutils provides an in-memory database and catalog fixtures for
// tests.
package testutils

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shishobooks/catalog/pkg/migrations"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func SetupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func Ptr[T any](v T) *T {
	return &v
}

// CreateAuthor inserts an author named name. Optional fields are set by mods.
func CreateAuthor(t *testing.T, db *bun.DB, name string, mods ...func(*models.Author)) *models.Author {
	t.Helper()

	now := time.Now()
	author := &models.Author{
		CreatedAt: now,
		UpdatedAt: now,
		Name:      name,
	}
	for _, mod := range mods {
		mod(author)
	}

	_, err := db.NewInsert().Model(author).Exec(context.Background())
	require.NoError(t, err)
	return author
}

// CreateBook inserts a book by author. Defaults give a valid, in-stock book
// published in 2020 that mods can override.
func CreateBook(t *testing.T, db *bun.DB, author *models.Author, title, isbn string, mods ...func(*models.Book)) *models.Book {
	t.Helper()

	now := time.Now()
	book := &models.Book{
		CreatedAt:       now,
		UpdatedAt:       now,
		Title:           title,
		AuthorID:        author.ID,
		ISBN:            isbn,
		PublicationYear: 2020,
		Genre:           models.GenreOther,
		Price:           10,
		InStock:         true,
	}
	for _, mod := range mods {
		mod(book)
	}

	_, err := db.NewInsert().Model(book).Exec(context.Background())
	require.NoError(t, err)
	return book
}

// CreateUser inserts a user that can be issued tokens. Its password hash is
// not a valid bcrypt hash, so it can't log in.
func CreateUser(t *testing.T, db *bun.DB, username string) *models.User {
	t.Helper()

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     username,
		PasswordHash: "-",
	}

	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user
}
