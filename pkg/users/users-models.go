package users

import (
	"errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/silktrader/usof/pkg/auth"
	"github.com/silktrader/usof/pkg/ntime"
	"github.com/silktrader/usof/pkg/storage/sqlite"
)

var roleRules = []validation.Rule{validation.In(sqlite.RoleAdmin, sqlite.RoleUser).Error("must be 1 (admin) or 2 (user)")}

var fullNameRules = []validation.Rule{validation.Length(0, 100)}

// User is the full record; the password hash is blanked before serialisation unless explicitly exposed.
type User struct {
	Id        int64       `json:"id" db:"id"`
	Login     string      `json:"login" db:"login"`
	Password  string      `json:"password,omitempty" db:"password"`
	FullName  *string     `json:"full_name" db:"full_name"`
	Email     string      `json:"email" db:"email"`
	Avatar    string      `json:"avatar" db:"avatar"`
	RoleId    int64       `json:"role_id" db:"role_id"`
	CreatedAt ntime.NTime `json:"created_at" db:"created_at"`
}

type AddUserData struct {
	Login                string `json:"login"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Email                string `json:"email"`
	RoleId               int64  `json:"role_id"`
}

func (data AddUserData) Validate() error {
	if data.Password != data.PasswordConfirmation {
		return auth.ErrPasswordMismatch
	}
	return validation.ValidateStruct(&data,
		validation.Field(&data.Login, auth.LoginRules...),
		validation.Field(&data.Password, auth.PasswordRules...),
		validation.Field(&data.Email, auth.EmailRules...),
		validation.Field(&data.RoleId, roleRules...),
	)
}

// UpdateUserData holds the optional fields of an administrative update; absent fields are left untouched.
type UpdateUserData struct {
	Login    *string `json:"login"`
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	RoleId   *int64  `json:"role"`
}

var errNoUserFields = errors.New("No fields provided for update")

func (data UpdateUserData) Validate() error {
	if data.Login == nil && data.FullName == nil && data.Email == nil && data.RoleId == nil {
		return errNoUserFields
	}
	return validation.ValidateStruct(&data,
		validation.Field(&data.Login, validation.NilOrNotEmpty, validation.Length(3, 50)),
		validation.Field(&data.FullName, fullNameRules...),
		validation.Field(&data.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&data.RoleId, roleRules...),
	)
}

type UpdateAvatarData struct {
	AvatarURL string `json:"avatar_url"`
}

func (data UpdateAvatarData) Validate() error {
	return validation.ValidateStruct(&data, validation.Field(&data.AvatarURL, validation.Required, validation.Length(1, 255)))
}
