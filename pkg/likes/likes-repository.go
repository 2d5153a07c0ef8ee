package likes

import (
	"context"
	"errors"
	"fmt"
	"github.com/jmoiron/sqlx"
	"github.com/silktrader/usof/pkg/storage/sqlite"
	"time"
)

type LikeRepository interface {
	GetByTarget(ctx context.Context, targetType TargetType, targetId int64) ([]Like, error)
	Set(ctx context.Context, authorId int64, targetType TargetType, targetId int64, likeType string) (int64, error)
	Remove(ctx context.Context, authorId int64, targetType TargetType, targetId int64) error
}

type likeRepository struct {
	Connection *sqlx.DB
}

var (
	ErrNotFound       = errors.New("like not found")
	ErrTargetNotFound = errors.New("liked record doesn't exist")
	ErrUnknownAuthor  = sqlite.ErrUnknownUser
)

func NewRepository(connection *sqlx.DB) LikeRepository {
	return &likeRepository{connection}
}

func (lr *likeRepository) GetByTarget(ctx context.Context, targetType TargetType, targetId int64) ([]Like, error) {
	var likes = make([]Like, 0)
	err := lr.Connection.SelectContext(ctx, &likes, `
		SELECT id, author_id, target_id, target_type, published_at, type
		FROM likes WHERE target_type = ? AND target_id = ? ORDER BY id`,
		string(targetType), targetId)
	return likes, err
}

// Set records the author's vote on a target, replacing any previous one, and returns the vote's id, which is stable
// across changes.
func (lr *likeRepository) Set(ctx context.Context, authorId int64, targetType TargetType, targetId int64, likeType string) (id int64, err error) {
	err = sqlite.Transact(ctx, lr.Connection, func(tx *sqlx.Tx) error {
		if err := sqlite.RequireUser(ctx, tx, authorId); err != nil {
			return err
		}

		var exists bool
		if err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM `+targetType.table()+` WHERE id = ?)`, targetId); err != nil {
			return err
		}
		if !exists {
			return ErrTargetNotFound
		}

		return tx.GetContext(ctx, &id, `
			INSERT INTO likes (author_id, target_id, target_type, published_at, type) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (author_id, target_id, target_type)
			DO UPDATE SET type = excluded.type, published_at = excluded.published_at
			RETURNING id`,
			authorId, targetId, string(targetType), time.Now().UTC(), likeType)
	})
	if err != nil && !errors.Is(err, ErrTargetNotFound) && !errors.Is(err, ErrUnknownAuthor) {
		return 0, fmt.Errorf("couldn't record %s on %s %d: %w", likeType, targetType, targetId, err)
	}
	return id, err
}

func (lr *likeRepository) Remove(ctx context.Context, authorId int64, targetType TargetType, targetId int64) error {
	result, err := lr.Connection.ExecContext(ctx,
		`DELETE FROM likes WHERE author_id = ? AND target_type = ? AND target_id = ?`,
		authorId, string(targetType), targetId)
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
