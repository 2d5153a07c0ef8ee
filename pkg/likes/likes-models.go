package likes

import (
	"errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/silktrader/usof/pkg/ntime"
)

// TargetType distinguishes the kinds of records a vote can address.
type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

// table holding the targets of this type
func (tt TargetType) table() string {
	if tt == TargetComment {
		return "comments"
	}
	return "posts"
}

const (
	TypeLike    = "like"
	TypeDislike = "dislike"
)

type Like struct {
	Id          int64       `json:"id" db:"id"`
	AuthorId    int64       `json:"author_id" db:"author_id"`
	TargetId    int64       `json:"target_id" db:"target_id"`
	TargetType  TargetType  `json:"target_type" db:"target_type"`
	PublishedAt ntime.NTime `json:"published_at" db:"published_at"`
	Type        string      `json:"type" db:"type"`
}

type LikesBody struct {
	Likes []Like `json:"likes"`
}

var errInvalidType = errors.New("Invalid type")

type LikeData struct {
	Type string `json:"type"`
}

func (data LikeData) Validate() error {
	if err := validation.Validate(data.Type, validation.Required, validation.In(TypeLike, TypeDislike)); err != nil {
		return errInvalidType
	}
	return nil
}
