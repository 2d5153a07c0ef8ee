package comments

import (
	"errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/silktrader/usof/pkg/ntime"
)

type Comment struct {
	Id        int64       `json:"id" db:"id"`
	AuthorId  int64       `json:"author_id" db:"author_id"`
	PostId    int64       `json:"post_id" db:"post_id"`
	CreatedAt ntime.NTime `json:"created_at" db:"created_at"`
	UpdatedAt ntime.NTime `json:"updated_at" db:"updated_at"`
	Content   string      `json:"content" db:"content"`
}

type CommentBody struct {
	Comment Comment `json:"comment"`
}

type CommentsBody struct {
	Comments []Comment `json:"comments"`
}

var errContentRequired = errors.New("Content is required")

// CommentData is used both to create and to edit comments.
type CommentData struct {
	Content string `json:"content"`
}

func (data CommentData) Validate() error {
	if data.Content == "" {
		return errContentRequired
	}
	return validation.ValidateStruct(&data, validation.Field(&data.Content, validation.Length(1, 65535)))
}
