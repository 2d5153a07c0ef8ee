package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/silktrader/usof/pkg/storage/sqlite"
	"time"
)

type UserRepository interface {
	GetAll(ctx context.Context) ([]User, error)
	GetById(ctx context.Context, id int64) (User, error)
	Add(ctx context.Context, data AddUserData, passwordHash string) (int64, error)
	Update(ctx context.Context, id int64, data UpdateUserData) error
	UpdateAvatar(ctx context.Context, id int64, avatar string) error
	Delete(ctx context.Context, id int64) error
}

type userRepository struct {
	Connection *sqlx.DB
}

var (
	ErrNotFound      = errors.New("user not found")
	ErrDuplicateUser = errors.New("login or email is already taken")
	ErrUnknownRole   = errors.New("role doesn't exist")
)

const userColumns = `id, login, password, full_name, email, avatar, role_id, created_at`

func NewRepository(connection *sqlx.DB) UserRepository {
	return &userRepository{connection}
}

func (ur *userRepository) GetAll(ctx context.Context) ([]User, error) {
	// initialise empty slice to avoid null serialisation
	var users = make([]User, 0)
	if err := ur.Connection.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, err
	}
	return users, nil
}

// GetById either returns a user matching the id, or ErrNotFound (along with an ignorable empty struct).
func (ur *userRepository) GetById(ctx context.Context, id int64) (user User, err error) {
	err = ur.Connection.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// Add stores a user created by an administrator, who may pick any existing role.
func (ur *userRepository) Add(ctx context.Context, data AddUserData, passwordHash string) (int64, error) {
	var roleId = data.RoleId
	if roleId == 0 {
		roleId = sqlite.RoleUser
	}

	result, err := ur.Connection.ExecContext(ctx,
		`INSERT INTO users (login, password, email, role_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		data.Login, passwordHash, data.Email, roleId, time.Now().UTC())
	if err = translate(err); err != nil {
		return 0, fmt.Errorf("couldn't add user %q: %w", data.Login, err)
	}
	return result.LastInsertId()
}

// Update changes only the fields present in data.
func (ur *userRepository) Update(ctx context.Context, id int64, data UpdateUserData) error {
	var builder = sq.Update("users").Where(sq.Eq{"id": id})
	if data.Login != nil {
		builder = builder.Set("login", *data.Login)
	}
	if data.FullName != nil {
		builder = builder.Set("full_name", *data.FullName)
	}
	if data.Email != nil {
		builder = builder.Set("email", *data.Email)
	}
	if data.RoleId != nil {
		builder = builder.Set("role_id", *data.RoleId)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	result, err := ur.Connection.ExecContext(ctx, query, args...)
	if err = translate(err); err != nil {
		return err
	}
	return affectedOne(result)
}

func (ur *userRepository) UpdateAvatar(ctx context.Context, id int64, avatar string) error {
	result, err := ur.Connection.ExecContext(ctx, `UPDATE users SET avatar = ? WHERE id = ?`, avatar, id)
	if err != nil {
		return err
	}
	return affectedOne(result)
}

// Delete removes the user, whose posts, comments, likes and reset tokens cascade; votes cast on the user's posts and
// comments are purged in the same transaction since their targets can't be referenced by foreign keys.
func (ur *userRepository) Delete(ctx context.Context, id int64) error {
	return sqlite.Transact(ctx, ur.Connection, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM likes WHERE
				(target_type = 'post' AND target_id IN (SELECT id FROM posts WHERE author_id = ?)) OR
				(target_type = 'comment' AND target_id IN (
					SELECT id FROM comments WHERE author_id = ? OR post_id IN (SELECT id FROM posts WHERE author_id = ?)))`,
			id, id, id); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return affectedOne(result)
	})
}

// translate maps constraint violations to the package's errors.
func translate(err error) error {
	switch err = sqlite.Classify(err); {
	case errors.Is(err, sqlite.ErrConflict):
		return ErrDuplicateUser
	case errors.Is(err, sqlite.ErrMissingReference):
		return ErrUnknownRole
	}
	return err
}

func affectedOne(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
