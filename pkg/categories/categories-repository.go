package categories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/silktrader/usof/pkg/storage/sqlite"
)

type CategoryRepository interface {
	GetAll(ctx context.Context) ([]Category, error)
	GetById(ctx context.Context, id int64) (Category, error)
	GetPosts(ctx context.Context, id int64) ([]Post, error)
	Add(ctx context.Context, data CategoryData) (int64, error)
	Update(ctx context.Context, id int64, data CategoryData) error
	Delete(ctx context.Context, id int64) error
}

type categoryRepository struct {
	Connection *sqlx.DB
}

var (
	ErrNotFound       = errors.New("category not found")
	ErrDuplicateTitle = errors.New("category title is already taken")
)

func NewRepository(connection *sqlx.DB) CategoryRepository {
	return &categoryRepository{connection}
}

func (cr *categoryRepository) GetAll(ctx context.Context) ([]Category, error) {
	var categories = make([]Category, 0)
	err := cr.Connection.SelectContext(ctx, &categories, `SELECT id, title, description FROM categories ORDER BY id`)
	return categories, err
}

func (cr *categoryRepository) GetById(ctx context.Context, id int64) (category Category, err error) {
	err = cr.Connection.GetContext(ctx, &category, `SELECT id, title, description FROM categories WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return category, ErrNotFound
	}
	return category, err
}

// GetPosts lists the posts linked to a category, once each even when linked repeatedly.
func (cr *categoryRepository) GetPosts(ctx context.Context, id int64) ([]Post, error) {
	var posts = make([]Post, 0)
	err := cr.Connection.SelectContext(ctx, &posts, `
		SELECT id, title, author_id, created_at, updated_at, status, content FROM posts
		WHERE id IN (SELECT post_id FROM post_categories WHERE category_id = ?)
		ORDER BY id`,
		id)
	return posts, err
}

func (cr *categoryRepository) Add(ctx context.Context, data CategoryData) (int64, error) {
	var columns, values = []string{"title"}, []interface{}{data.Title}
	if data.Description != nil {
		columns, values = append(columns, "description"), append(values, *data.Description)
	}
	query, args, err := sq.Insert("categories").Columns(columns...).Values(values...).ToSql()
	if err != nil {
		return 0, err
	}

	result, err := cr.Connection.ExecContext(ctx, query, args...)
	if err = sqlite.Classify(err); errors.Is(err, sqlite.ErrConflict) {
		return 0, ErrDuplicateTitle
	} else if err != nil {
		return 0, fmt.Errorf("couldn't add category %q: %w", data.Title, err)
	}
	return result.LastInsertId()
}

func (cr *categoryRepository) Update(ctx context.Context, id int64, data CategoryData) error {
	var builder = sq.Update("categories").Set("title", data.Title).Where(sq.Eq{"id": id})
	if data.Description != nil {
		builder = builder.Set("description", *data.Description)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	result, err := cr.Connection.ExecContext(ctx, query, args...)
	if err = sqlite.Classify(err); errors.Is(err, sqlite.ErrConflict) {
		return ErrDuplicateTitle
	} else if err != nil {
		return err
	}
	return affectedOne(result)
}

// Delete removes the category; its links to posts cascade while the posts remain.
func (cr *categoryRepository) Delete(ctx context.Context, id int64) error {
	result, err := cr.Connection.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(result)
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
