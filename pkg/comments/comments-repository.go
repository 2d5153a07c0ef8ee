package comments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/jmoiron/sqlx"
	"github.com/silktrader/usof/pkg/ntime"
	"github.com/silktrader/usof/pkg/storage/sqlite"
)

type CommentRepository interface {
	GetByPost(ctx context.Context, postId int64) ([]Comment, error)
	GetById(ctx context.Context, id int64) (Comment, error)
	GetAuthorId(ctx context.Context, id int64) (int64, error)
	Add(ctx context.Context, authorId int64, postId int64, content string) (int64, error)
	Update(ctx context.Context, id int64, content string) error
	Delete(ctx context.Context, id int64) error
}

type commentRepository struct {
	Connection *sqlx.DB
}

var (
	ErrNotFound      = errors.New("comment not found")
	ErrPostNotFound  = errors.New("post not found")
	ErrUnknownAuthor = sqlite.ErrUnknownUser
)

const commentColumns = `id, author_id, post_id, created_at, updated_at, content`

func NewRepository(connection *sqlx.DB) CommentRepository {
	return &commentRepository{connection}
}

// GetByPost lists a post's comments from the oldest; a missing post simply has none.
func (cr *commentRepository) GetByPost(ctx context.Context, postId int64) ([]Comment, error) {
	var comments = make([]Comment, 0)
	err := cr.Connection.SelectContext(ctx, &comments,
		`SELECT `+commentColumns+` FROM comments WHERE post_id = ? ORDER BY id`, postId)
	return comments, err
}

func (cr *commentRepository) GetById(ctx context.Context, id int64) (comment Comment, err error) {
	err = cr.Connection.GetContext(ctx, &comment, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return comment, ErrNotFound
	}
	return comment, err
}

func (cr *commentRepository) GetAuthorId(ctx context.Context, id int64) (authorId int64, err error) {
	err = cr.Connection.GetContext(ctx, &authorId, `SELECT author_id FROM comments WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return authorId, err
}

// Add relies on the foreign key to the post, a violation meaning that the post doesn't exist.
func (cr *commentRepository) Add(ctx context.Context, authorId int64, postId int64, content string) (id int64, err error) {
	err = sqlite.Transact(ctx, cr.Connection, func(tx *sqlx.Tx) error {
		if err := sqlite.RequireUser(ctx, tx, authorId); err != nil {
			return err
		}

		var now = ntime.Now()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO comments (author_id, post_id, created_at, updated_at, content) VALUES (?, ?, ?, ?, ?)`,
			authorId, postId, now, now, content)
		if err = sqlite.Classify(err); errors.Is(err, sqlite.ErrMissingReference) {
			return ErrPostNotFound
		} else if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil && !errors.Is(err, ErrPostNotFound) && !errors.Is(err, ErrUnknownAuthor) {
		return 0, fmt.Errorf("couldn't add comment to post %d: %w", postId, err)
	}
	return id, err
}

func (cr *commentRepository) Update(ctx context.Context, id int64, content string) error {
	result, err := cr.Connection.ExecContext(ctx,
		`UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`, content, ntime.Now(), id)
	if err != nil {
		return err
	}
	return affectedOne(result)
}

// Delete removes the comment along with the votes it received.
func (cr *commentRepository) Delete(ctx context.Context, id int64) error {
	return sqlite.Transact(ctx, cr.Connection, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if err = affectedOne(result); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM likes WHERE target_type = 'comment' AND target_id = ?`, id)
		return err
	})
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
