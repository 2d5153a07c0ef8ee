// Package sqlitetest provides throwaway databases and fixtures for repository and handler tests.
package sqlitetest

import (
	"github.com/jmoiron/sqlx"
	"github.com/silktrader/usof/pkg/storage/sqlite"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"
	"path/filepath"
	"testing"
	"time"
)

// Password is the clear text password of every user created by AddUser.
const Password = "correct horse battery"

// New creates a fresh database in the test's temporary directory, closed on cleanup.
func New(t testing.TB) *sqlite.Storage {
	t.Helper()
	logger, _ := test.NewNullLogger()
	storage, err := sqlite.New(logger, filepath.Join(t.TempDir(), "usof.db"))
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(storage.Close)
	return storage
}

// AddUser inserts a user with the given login and role, deriving the email from the login.
func AddUser(t testing.TB, db *sqlx.DB, login string, roleId int64) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing fixture password: %v", err)
	}
	res, err := db.Exec(
		`INSERT INTO users (login, password, email, role_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		login, string(hash), login+"@example.com", roleId, time.Now().UTC())
	if err != nil {
		t.Fatalf("adding user %q: %v", login, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("reading id of user %q: %v", login, err)
	}
	return id
}

// AddCategory inserts a category and returns its id.
func AddCategory(t testing.TB, db *sqlx.DB, title string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO categories (title) VALUES (?)`, title)
	if err != nil {
		t.Fatalf("adding category %q: %v", title, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// AddPost inserts a post authored by authorId, linked to the given categories.
func AddPost(t testing.TB, db *sqlx.DB, authorId int64, title string, categories ...int64) int64 {
	t.Helper()
	var now = time.Now().UTC()
	res, err := db.Exec(
		`INSERT INTO posts (title, author_id, created_at, updated_at, content) VALUES (?, ?, ?, ?, ?)`,
		title, authorId, now, now, "content of "+title)
	if err != nil {
		t.Fatalf("adding post %q: %v", title, err)
	}
	id, _ := res.LastInsertId()
	for _, category := range categories {
		if _, err = db.Exec(`INSERT INTO post_categories (post_id, category_id) VALUES (?, ?)`, id, category); err != nil {
			t.Fatalf("linking post %q to category %d: %v", title, category, err)
		}
	}
	return id
}

// AddComment inserts a comment under postId.
func AddComment(t testing.TB, db *sqlx.DB, authorId, postId int64, content string) int64 {
	t.Helper()
	var now = time.Now().UTC()
	res, err := db.Exec(
		`INSERT INTO comments (author_id, post_id, created_at, updated_at, content) VALUES (?, ?, ?, ?, ?)`,
		authorId, postId, now, now, content)
	if err != nil {
		t.Fatalf("adding comment: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// Count returns the number of rows of table matching the optional where clause.
func Count(t testing.TB, db *sqlx.DB, table, where string, args ...any) int {
	t.Helper()
	var query = "SELECT count(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var count int
	if err := db.Get(&count, query, args...); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return count
}
