package sqlite

import (
	"context"
	"errors"
	"fmt"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"os"
	"strings"
)

const driverName = "sqlite3"

var ErrSchemaMismatch = errors.New("schema mismatch")

// Storage owns the single connection pool shared by every repository.
type Storage struct {
	Connection *sqlx.DB
	logger     logrus.FieldLogger
}

// New opens the database at path, creating and seeding it when missing. An existing database must match the
// embedded schema, otherwise ErrSchemaMismatch is returned rather than risking writes against unknown tables.
func New(logger logrus.FieldLogger, path string) (*Storage, error) {
	logger.Info("initialising SQLite DB")

	var (
		connection *sqlx.DB
		err        error
	)

	// the database already exists, check for its contents
	if _, statErr := os.Stat(path); statErr == nil {
		connection, err = getValidConnection(path)
		if err != nil {
			logger.WithError(err).Error("error while verifying existing database")
			return nil, err
		}
	} else {
		// create the file and initialise the schema; mind the explicit need for foreign keys constraints
		connection, err = sqlx.Open(driverName, getConnectionString(path))
		if err != nil {
			logger.WithError(err).Error("error while creating new database")
			return nil, err
		}
		if _, err = connection.Exec(schema); err != nil {
			_ = connection.Close()
			logger.WithError(err).Error("error while building database schema")
			return nil, err
		}
	}

	// opening the DB will fail silently when the package is compiled without CGO_ENABLED
	if err = connection.Ping(); err != nil {
		_ = connection.Close()
		return nil, err
	}

	if _, err = connection.Exec(seed); err != nil {
		_ = connection.Close()
		logger.WithError(err).Error("error while seeding roles")
		return nil, err
	}

	return &Storage{Connection: connection, logger: logger}, nil
}

func (s *Storage) Close() {
	s.logger.Debug("database stopping")
	if err := s.Connection.Close(); err != nil {
		s.logger.WithError(err).Warning("error while closing database")
	}
}

func getValidConnection(path string) (*sqlx.DB, error) {
	connection, err := sqlx.Open(driverName, getConnectionString(path))
	if err != nil {
		return nil, err
	}

	// read the schema as defined in the storage package
	desired, err := sqlx.Open(driverName, ":memory:")
	if err != nil {
		_ = connection.Close()
		return nil, err
	}
	defer desired.Close()

	if _, err = desired.Exec(schema); err != nil {
		_ = connection.Close()
		return nil, err
	}

	// compare the defined schema with the actual one found in the existing database
	desiredTables, err := mapSchema(desired)
	if err != nil {
		_ = connection.Close()
		return nil, err
	}
	actualTables, err := mapSchema(connection)
	if err != nil {
		_ = connection.Close()
		return nil, err
	}

	// the database already exists and its schema matches the desired one
	if sameSchemaMap(desiredTables, actualTables) {
		return connection, nil
	}
	_ = connection.Close()
	return nil, ErrSchemaMismatch
}

func mapSchema(connection *sqlx.DB) (map[string]string, error) {
	rows, err := connection.Query(`SELECT name, sql FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// for some reason in memory and on file sqlite schemas differ, possibly due to the hosting platform
	var replacer = strings.NewReplacer(
		"\n\t\t", "",
		"\r\n\t\t", "",
		"\r\n", "",
		"\n", "",
	)

	var tables = make(map[string]string)
	var name, sqlCode string
	for rows.Next() {
		if err = rows.Scan(&name, &sqlCode); err != nil {
			return tables, err
		}
		tables[name] = replacer.Replace(sqlCode)
	}

	return tables, rows.Err()
}

func sameSchemaMap(first, second map[string]string) bool {
	// the second map might be larger than the first, hence the additional length check
	if len(first) != len(second) {
		return false
	}
	for firstKey, firstValue := range first {
		if secondValue, found := second[firstKey]; !found || secondValue != firstValue {
			return false
		}
	}
	return true
}

// getConnectionString enables foreign keys constraints, waits on locks rather than failing immediately and
// takes write locks at BEGIN, so that concurrent transactions queue instead of deadlocking on upgrade.
func getConnectionString(path string) string {
	return path + "?_fk=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
}

// Transact runs fn inside a transaction, committing when fn succeeds.
func Transact(ctx context.Context, connection *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := connection.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	// rolling back after a transaction commit will result in a safe NOP
	defer tx.Rollback()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

var (
	ErrConflict          = errors.New("record conflicts with an existing one")
	ErrMissingReference  = errors.New("referenced record doesn't exist")
	ErrConstraintChecked = errors.New("value rejected by a constraint")
	ErrUnknownUser       = errors.New("user doesn't exist")
)

// RequireUser fails with ErrUnknownUser when no user has the given id. Tokens outlive deleted users, so writes
// attributed to the token's user check it first.
func RequireUser(ctx context.Context, q sqlx.QueryerContext, id int64) error {
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, id); err != nil {
		return err
	}
	if !exists {
		return ErrUnknownUser
	}
	return nil
}

// Classify translates driver constraint violations into the storage sentinel errors, leaving other errors as they are.
func Classify(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: %v", ErrMissingReference, err)
	case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
		return fmt.Errorf("%w: %v", ErrConstraintChecked, err)
	}
	return err
}
