package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/silktrader/usof/pkg/ntime"
	"github.com/silktrader/usof/pkg/storage/sqlite"
)

type PostRepository interface {
	GetPage(ctx context.Context, page int) ([]Post, error)
	GetById(ctx context.Context, id int64) (Post, error)
	GetCategories(ctx context.Context, postId int64) ([]Category, error)
	Add(ctx context.Context, authorId int64, data AddPostData) (int64, error)
	Update(ctx context.Context, postId int64, authorId int64, changes PostChanges) error
	Delete(ctx context.Context, postId int64, authorId int64) error
}

type postRepository struct {
	Connection *sqlx.DB
}

var (
	ErrNotFound        = errors.New("post not found")
	ErrNotOwner        = errors.New("post doesn't exist or belongs to another user")
	ErrNoChanges       = errors.New("no fields to update")
	ErrUnknownCategory = errors.New("one or more categories don't exist")
	ErrUnknownAuthor   = sqlite.ErrUnknownUser
)

const postColumns = `id, title, author_id, created_at, updated_at, status, content`

func NewRepository(connection *sqlx.DB) PostRepository {
	return &postRepository{connection}
}

// GetPage returns the posts of a one-based page, oldest first.
func (pr *postRepository) GetPage(ctx context.Context, page int) ([]Post, error) {
	if page < 1 {
		page = 1
	} else if int64(page) > lastPage {
		return make([]Post, 0), nil
	}

	query, args, err := sq.Select(postColumns).
		From("posts").
		OrderBy("id").
		Limit(PageSize).
		Offset(uint64(page-1) * PageSize).
		ToSql()
	if err != nil {
		return nil, err
	}

	var posts = make([]Post, 0, PageSize)
	if err = pr.Connection.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("couldn't fetch page %d of posts: %w", page, err)
	}
	return posts, nil
}

func (pr *postRepository) GetById(ctx context.Context, id int64) (post Post, err error) {
	err = pr.Connection.GetContext(ctx, &post, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return post, ErrNotFound
	}
	return post, err
}

// GetCategories lists the categories of a post, which is empty for missing posts too.
func (pr *postRepository) GetCategories(ctx context.Context, postId int64) ([]Category, error) {
	var categories = make([]Category, 0)
	err := pr.Connection.SelectContext(ctx, &categories, `
		SELECT categories.id, categories.title, categories.description
		FROM categories JOIN post_categories ON categories.id = post_categories.category_id
		WHERE post_categories.post_id = ?
		ORDER BY post_categories.id`,
		postId)
	return categories, err
}

// Add stores the post along with its category links, both or neither.
func (pr *postRepository) Add(ctx context.Context, authorId int64, data AddPostData) (id int64, err error) {
	err = sqlite.Transact(ctx, pr.Connection, func(tx *sqlx.Tx) error {
		if err := sqlite.RequireUser(ctx, tx, authorId); err != nil {
			return err
		}

		var now = ntime.Now()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO posts (title, author_id, created_at, updated_at, status, content) VALUES (?, ?, ?, ?, ?, ?)`,
			data.Title, authorId, now, now, StatusActive, data.Content)
		if err != nil {
			return err
		}
		if id, err = result.LastInsertId(); err != nil {
			return err
		}
		return linkCategories(ctx, tx, id, data.CategoryIds())
	})
	if errors.Is(sqlite.Classify(err), sqlite.ErrMissingReference) {
		return 0, ErrUnknownCategory
	}
	return id, err
}

// Update applies changes to a post owned by authorId, refreshing its update time. Ownership is checked within the
// same transaction as the changes.
func (pr *postRepository) Update(ctx context.Context, postId int64, authorId int64, changes PostChanges) error {
	err := sqlite.Transact(ctx, pr.Connection, func(tx *sqlx.Tx) error {
		if err := checkOwner(ctx, tx, postId, authorId); err != nil {
			return err
		}
		if changes.empty() {
			return ErrNoChanges
		}

		var builder = sq.Update("posts").Set("updated_at", ntime.Now()).Where(sq.Eq{"id": postId})
		if changes.Title != nil {
			builder = builder.Set("title", *changes.Title)
		}
		if changes.Content != nil {
			builder = builder.Set("content", *changes.Content)
		}
		if changes.Status != nil {
			builder = builder.Set("status", *changes.Status)
		}

		query, args, err := builder.ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}

		if changes.Categories == nil {
			return nil
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM post_categories WHERE post_id = ?`, postId); err != nil {
			return err
		}
		return linkCategories(ctx, tx, postId, *changes.Categories)
	})
	if errors.Is(sqlite.Classify(err), sqlite.ErrMissingReference) {
		return ErrUnknownCategory
	}
	return err
}

// Delete removes a post owned by authorId. Category links and comments cascade, while votes on the post and on its
// comments are deleted explicitly.
func (pr *postRepository) Delete(ctx context.Context, postId int64, authorId int64) error {
	return sqlite.Transact(ctx, pr.Connection, func(tx *sqlx.Tx) error {
		if err := checkOwner(ctx, tx, postId, authorId); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM likes WHERE
				(target_type = 'post' AND target_id = ?) OR
				(target_type = 'comment' AND target_id IN (SELECT id FROM comments WHERE post_id = ?))`,
			postId, postId); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, postId)
		return err
	})
}

func checkOwner(ctx context.Context, tx *sqlx.Tx, postId int64, authorId int64) error {
	var owner int64
	err := tx.GetContext(ctx, &owner, `SELECT author_id FROM posts WHERE id = ?`, postId)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != authorId) {
		return ErrNotOwner
	}
	return err
}

func linkCategories(ctx context.Context, tx *sqlx.Tx, postId int64, categories []int64) error {
	if len(categories) == 0 {
		return nil
	}
	var builder = sq.Insert("post_categories").Columns("post_id", "category_id")
	for _, category := range categories {
		builder = builder.Values(postId, category)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}
