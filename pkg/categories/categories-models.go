package categories

import (
	"errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/silktrader/usof/pkg/ntime"
)

type Category struct {
	Id          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
}

type CategoriesBody struct {
	Categories []Category `json:"categories"`
}

// Post is the listing shape of a post within a category.
type Post struct {
	Id        int64       `json:"id" db:"id"`
	Title     string      `json:"title" db:"title"`
	AuthorId  int64       `json:"author_id" db:"author_id"`
	CreatedAt ntime.NTime `json:"created_at" db:"created_at"`
	UpdatedAt ntime.NTime `json:"updated_at" db:"updated_at"`
	Status    string      `json:"status" db:"status"`
	Content   string      `json:"content" db:"content"`
}

type PostsBody struct {
	Posts []Post `json:"posts"`
}

var errTitleRequired = errors.New("Title is required")

// CategoryData creates or edits a category; a missing description keeps the stored one, or the default on creation.
type CategoryData struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

func (data CategoryData) Validate() error {
	if data.Title == "" {
		return errTitleRequired
	}
	return validation.ValidateStruct(&data,
		validation.Field(&data.Title, validation.Length(1, 100)),
		validation.Field(&data.Description, validation.Length(0, 1000)),
	)
}
