package posts

import (
	"encoding/json"
	"errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/silktrader/usof/pkg/ntime"
	"math"
)

// PageSize is the number of posts in each page of the listing.
const PageSize = 10

// lastPage is the highest page whose offset SQLite can represent; later pages are always empty.
const lastPage int64 = math.MaxInt64/PageSize + 1

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

var (
	titleRules   = []validation.Rule{validation.Required, validation.Length(1, 255)}
	contentRules = []validation.Rule{validation.Required, validation.Length(1, 65535)}
	statusRules  = []validation.Rule{
		validation.NilOrNotEmpty,
		validation.In(StatusActive, StatusInactive).Error("must be either active or inactive"),
	}
)

type Post struct {
	Id        int64       `json:"id" db:"id"`
	Title     string      `json:"title" db:"title"`
	AuthorId  int64       `json:"author_id" db:"author_id"`
	CreatedAt ntime.NTime `json:"created_at" db:"created_at"`
	UpdatedAt ntime.NTime `json:"updated_at" db:"updated_at"`
	Status    string      `json:"status" db:"status"`
	Content   string      `json:"content" db:"content"`
}

type Category struct {
	Id          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
}

type PostsPage struct {
	Posts []Post `json:"posts"`
	Page  int    `json:"page"`
}

type CategoriesBody struct {
	Categories []Category `json:"categories"`
}

var (
	errRequiredFields  = errors.New("Title, content, and categories are required")
	errCategoriesArray = errors.New("Categories must be an array")
	errCategoryIds     = errors.New("Categories must hold positive identifiers")
)

// Categories are kept raw until validation, so that a value of the wrong type gets a dedicated message.
type AddPostData struct {
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	Categories json.RawMessage `json:"categories"`
}

func (data AddPostData) Validate() error {
	if data.Title == "" || data.Content == "" || isNull(data.Categories) {
		return errRequiredFields
	}
	if _, err := parseCategories(data.Categories); err != nil {
		return err
	}
	return validation.ValidateStruct(&data,
		validation.Field(&data.Title, titleRules...),
		validation.Field(&data.Content, contentRules...),
	)
}

// CategoryIds must follow a successful validation.
func (data AddPostData) CategoryIds() []int64 {
	ids, _ := parseCategories(data.Categories)
	return ids
}

// UpdatePostData holds optional fields; categories, when present, replace the post's whole set.
type UpdatePostData struct {
	Title      *string         `json:"title"`
	Content    *string         `json:"content"`
	Status     *string         `json:"status"`
	Categories json.RawMessage `json:"categories"`
}

func (data UpdatePostData) Validate() error {
	if !isNull(data.Categories) {
		if _, err := parseCategories(data.Categories); err != nil {
			return err
		}
	}
	return validation.ValidateStruct(&data,
		validation.Field(&data.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&data.Content, validation.NilOrNotEmpty),
		validation.Field(&data.Status, statusRules...),
	)
}

// Changes must follow a successful validation.
func (data UpdatePostData) Changes() PostChanges {
	var changes = PostChanges{Title: data.Title, Content: data.Content, Status: data.Status}
	if !isNull(data.Categories) {
		ids, _ := parseCategories(data.Categories)
		changes.Categories = &ids
	}
	return changes
}

// PostChanges lists what an update touches; nil fields are left as they are.
type PostChanges struct {
	Title      *string
	Content    *string
	Status     *string
	Categories *[]int64
}

func (c PostChanges) empty() bool {
	return c.Title == nil && c.Content == nil && c.Status == nil && c.Categories == nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func parseCategories(raw json.RawMessage) ([]int64, error) {
	var ids = make([]int64, 0)
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, errCategoriesArray
	}
	for _, id := range ids {
		if id < 1 {
			return nil, errCategoryIds
		}
	}
	return ids, nil
}
