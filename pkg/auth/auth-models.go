package auth

import (
	"errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var ErrPasswordMismatch = errors.New("Passwords do not match")

// bcrypt ignores anything past 72 bytes
var (
	LoginRules    = []validation.Rule{validation.Required, validation.Length(3, 50)}
	PasswordRules = []validation.Rule{validation.Required, validation.Length(6, 72)}
	EmailRules    = []validation.Rule{validation.Required, is.EmailFormat, validation.Length(0, 255)}
)

type RegisterData struct {
	Login                string `json:"login"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Email                string `json:"email"`
}

func (data RegisterData) Validate() error {
	if data.Password != data.PasswordConfirmation {
		return ErrPasswordMismatch
	}
	return validation.ValidateStruct(&data,
		validation.Field(&data.Login, LoginRules...),
		validation.Field(&data.Password, PasswordRules...),
		validation.Field(&data.Email, EmailRules...),
	)
}

type LoginData struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

var errLoginFields = errors.New("All fields [login, email, password] are required")

func (data LoginData) Validate() error {
	if data.Login == "" || data.Email == "" || data.Password == "" {
		return errLoginFields
	}
	return nil
}

type ResetRequestData struct {
	Email string `json:"email"`
}

var errEmailRequired = errors.New("Email is required")

func (data ResetRequestData) Validate() error {
	if data.Email == "" {
		return errEmailRequired
	}
	return validation.ValidateStruct(&data, validation.Field(&data.Email, is.EmailFormat))
}

type NewPasswordData struct {
	NewPassword string `json:"new_password"`
}

var errNewPasswordRequired = errors.New("New password is required")

func (data NewPasswordData) Validate() error {
	if data.NewPassword == "" {
		return errNewPasswordRequired
	}
	return validation.ValidateStruct(&data, validation.Field(&data.NewPassword, PasswordRules...))
}

// LoginResponse carries the token for clients that prefer the Authorization header over the cookie.
type LoginResponse struct {
	Message string   `json:"message"`
	Token   string   `json:"token"`
	User    UserInfo `json:"user"`
}

type UserInfo struct {
	Id    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
}
