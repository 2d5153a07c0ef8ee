package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/jmoiron/sqlx"
	"github.com/silktrader/usof/pkg/storage/sqlite"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrDuplicateUser = errors.New("login or email already taken")
)

// Credentials is what the login flow needs to verify a password and mint a token.
type Credentials struct {
	User
	Password string `db:"password"`
}

type Repository interface {
	AddUser(ctx context.Context, login, passwordHash, email string) (int64, error)
	GetCredentials(ctx context.Context, login, email string) (Credentials, error)
	GetUserIdByEmail(ctx context.Context, email string) (int64, error)
	GetRoleId(ctx context.Context, userId int64) (int64, error)
	AddResetToken(ctx context.Context, userId int64, token string, expires time.Time) error
	ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error
}

type repository struct {
	Connection *sqlx.DB
}

func NewRepository(connection *sqlx.DB) Repository {
	return &repository{connection}
}

// AddUser registers a user with the default role.
func (ar *repository) AddUser(ctx context.Context, login, passwordHash, email string) (int64, error) {
	result, err := ar.Connection.ExecContext(ctx,
		`INSERT INTO users (login, password, email, role_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		login, passwordHash, email, sqlite.RoleUser, time.Now().UTC())
	if err = sqlite.Classify(err); errors.Is(err, sqlite.ErrConflict) {
		return 0, ErrDuplicateUser
	} else if err != nil {
		return 0, fmt.Errorf("couldn't add user %q: %w", login, err)
	}
	return result.LastInsertId()
}

// GetCredentials either returns the user matching both login and email, or ErrNotFound.
func (ar *repository) GetCredentials(ctx context.Context, login, email string) (credentials Credentials, err error) {
	err = ar.Connection.GetContext(ctx, &credentials, `
		SELECT id, login, email, role_id, password FROM users WHERE login = ? AND email = ?`,
		login, email)
	if errors.Is(err, sql.ErrNoRows) {
		return credentials, ErrNotFound
	}
	return credentials, err
}

func (ar *repository) GetUserIdByEmail(ctx context.Context, email string) (id int64, err error) {
	err = ar.Connection.GetContext(ctx, &id, `SELECT id FROM users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

func (ar *repository) GetRoleId(ctx context.Context, userId int64) (roleId int64, err error) {
	err = ar.Connection.GetContext(ctx, &roleId, `SELECT role_id FROM users WHERE id = ?`, userId)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return roleId, err
}

// AddResetToken stores a new token and purges the user's expired ones.
func (ar *repository) AddResetToken(ctx context.Context, userId int64, token string, expires time.Time) error {
	return sqlite.Transact(ctx, ar.Connection, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM password_reset_tokens WHERE user_id = ? AND expires_at <= ?`,
			userId, time.Now().UTC()); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO password_reset_tokens (user_id, token, expires_at) VALUES (?, ?, ?)`,
			userId, token, expires.UTC())
		return err
	})
}

// ResetPassword swaps the password of the token's owner and consumes the token, both or neither.
// Unknown and expired tokens yield ErrInvalidToken.
func (ar *repository) ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error {
	return sqlite.Transact(ctx, ar.Connection, func(tx *sqlx.Tx) error {
		var userId int64
		err := tx.GetContext(ctx, &userId,
			`SELECT user_id FROM password_reset_tokens WHERE token = ? AND expires_at > ?`,
			token, now.UTC())
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidToken
		} else if err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, `UPDATE users SET password = ? WHERE id = ?`, passwordHash, userId); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE token = ?`, token)
		return err
	})
}
