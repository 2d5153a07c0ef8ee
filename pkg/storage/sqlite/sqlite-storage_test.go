package sqlite_test

import (
	"context"
	"errors"
	"github.com/jmoiron/sqlx"
	"github.com/silktrader/usof/pkg/storage/sqlite"
	"github.com/silktrader/usof/pkg/storage/sqlite/sqlitetest"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
	"time"
)

func TestNewSeedsRoles(t *testing.T) {
	var storage = sqlitetest.New(t)

	var names []string
	require.NoError(t, storage.Connection.Select(&names, `SELECT name FROM roles ORDER BY id`))
	assert.Equal(t, []string{"admin", "user"}, names)
}

func TestReopenExistingDatabase(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var path = filepath.Join(t.TempDir(), "usof.db")

	first, err := sqlite.New(logger, path)
	require.NoError(t, err)
	sqlitetest.AddUser(t, first.Connection, "first", sqlite.RoleUser)
	first.Close()

	second, err := sqlite.New(logger, path)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, 1, sqlitetest.Count(t, second.Connection, "users", ""))
	assert.Equal(t, 2, sqlitetest.Count(t, second.Connection, "roles", ""))
}

func TestSchemaMismatch(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var path = filepath.Join(t.TempDir(), "foreign.db")

	foreign, err := sqlx.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = foreign.Exec(`CREATE TABLE unrelated (id INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, foreign.Close())

	_, err = sqlite.New(logger, path)
	assert.ErrorIs(t, err, sqlite.ErrSchemaMismatch)
}

func TestClassifyUniqueViolation(t *testing.T) {
	var storage = sqlitetest.New(t)
	sqlitetest.AddUser(t, storage.Connection, "taken", sqlite.RoleUser)

	_, err := storage.Connection.Exec(
		`INSERT INTO users (login, password, email, created_at) VALUES (?, ?, ?, ?)`,
		"taken", "hash", "other@example.com", time.Now())
	assert.ErrorIs(t, sqlite.Classify(err), sqlite.ErrConflict)

	_, err = storage.Connection.Exec(
		`INSERT INTO users (login, password, email, created_at) VALUES (?, ?, ?, ?)`,
		"other", "hash", "taken@example.com", time.Now())
	assert.ErrorIs(t, sqlite.Classify(err), sqlite.ErrConflict)
}

func TestClassifyForeignKeyViolation(t *testing.T) {
	var storage = sqlitetest.New(t)

	_, err := storage.Connection.Exec(
		`INSERT INTO users (login, password, email, role_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		"ghost", "hash", "ghost@example.com", 99, time.Now())
	assert.ErrorIs(t, sqlite.Classify(err), sqlite.ErrMissingReference)
}

func TestClassifyCheckViolation(t *testing.T) {
	var storage = sqlitetest.New(t)
	var author = sqlitetest.AddUser(t, storage.Connection, "author", sqlite.RoleUser)

	_, err := storage.Connection.Exec(
		`INSERT INTO likes (author_id, target_id, target_type, published_at, type) VALUES (?, 1, 'post', ?, 'meh')`,
		author, time.Now())
	assert.ErrorIs(t, sqlite.Classify(err), sqlite.ErrConstraintChecked)
}

func TestClassifyPassesOtherErrors(t *testing.T) {
	var other = errors.New("other")
	assert.Same(t, other, sqlite.Classify(other))
	assert.NoError(t, sqlite.Classify(nil))
}

func TestTransactRollsBack(t *testing.T) {
	var storage = sqlitetest.New(t)
	var failure = errors.New("abort")

	err := sqlite.Transact(context.Background(), storage.Connection, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`INSERT INTO categories (title) VALUES ('kept?')`); err != nil {
			return err
		}
		return failure
	})
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 0, sqlitetest.Count(t, storage.Connection, "categories", ""))
}

func TestDeletingUserCascades(t *testing.T) {
	var storage = sqlitetest.New(t)
	var db = storage.Connection
	var author = sqlitetest.AddUser(t, db, "author", sqlite.RoleUser)
	var category = sqlitetest.AddCategory(t, db, "go")
	var post = sqlitetest.AddPost(t, db, author, "hello", category)
	sqlitetest.AddComment(t, db, author, post, "first")

	_, err := db.Exec(`DELETE FROM users WHERE id = ?`, author)
	require.NoError(t, err)

	assert.Equal(t, 0, sqlitetest.Count(t, db, "posts", ""))
	assert.Equal(t, 0, sqlitetest.Count(t, db, "post_categories", ""))
	assert.Equal(t, 0, sqlitetest.Count(t, db, "comments", ""))
	assert.Equal(t, 1, sqlitetest.Count(t, db, "categories", ""))
}
