package auth

import (
	"context"
	"errors"
	"fmt"
	JSON "github.com/silktrader/usof/pkg/json-utilities"
	"github.com/silktrader/usof/pkg/rest"
	"net/http"
	"strings"
	"time"
)

// DefaultResetLifetime bounds how long a password reset link stays usable.
const DefaultResetLifetime = time.Hour

// ResetNotifier delivers reset links; implemented by the mailer package.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// Handlers bundles the dependencies of the authentication routes.
type Handlers struct {
	Repository Repository
	Gate       *Gate
	Issuer     *Issuer
	Hasher     Hasher
	Notifier   ResetNotifier

	// ResetURL is the client page receiving the token, which is appended to it
	ResetURL      string
	ResetLifetime time.Duration
	SecureCookie  bool
}

func RegisterHandlers(engine *rest.Engine, h Handlers) {
	if h.ResetLifetime == 0 {
		h.ResetLifetime = DefaultResetLifetime
	}

	engine.Post("/api/auth/register", h.register)
	engine.Post("/api/auth/login", h.login)
	engine.Post("/api/auth/logout", h.logout)
	engine.Get("/api/auth/protected", h.protected, h.Gate.Authenticate)
	engine.Post("/api/auth/password-reset", h.requestPasswordReset)
	engine.Post("/api/auth/password-reset/:token", h.confirmPasswordReset)
}

func (h Handlers) register(writer http.ResponseWriter, request *http.Request) {
	data, err := JSON.DecodeValidate[RegisterData](request)
	if err != nil {
		JSON.ValidationError(writer, err)
		return
	}

	hash, err := h.Hasher.Hash(data.Password)
	if err != nil {
		JSON.InternalServerError(writer, rest.Logger(request), err)
		return
	}

	if _, err = h.Repository.AddUser(request.Context(), data.Login, hash, data.Email); errors.Is(err, ErrDuplicateUser) {
		JSON.Conflict(writer, "Login or email is already taken")
	} else if err != nil {
		JSON.InternalServerError(writer, rest.Logger(request), err)
	} else {
		JSON.Created(writer, JSON.MessageBody{Message: "User registered successfully"})
	}
}

// login answers with the same error whether the account is missing or the password is wrong.
func (h Handlers) login(writer http.ResponseWriter, request *http.Request) {
	data, err := JSON.DecodeValidate[LoginData](request)
	if err != nil {
		JSON.ValidationError(writer, err)
		return
	}

	credentials, err := h.Repository.GetCredentials(request.Context(), data.Login, data.Email)
	if errors.Is(err, ErrNotFound) {
		JSON.Unauthorised(writer, "Invalid login credentials")
		return
	} else if err != nil {
		JSON.InternalServerError(writer, rest.Logger(request), err)
		return
	}

	if !h.Hasher.Matches(credentials.Password, data.Password) {
		JSON.Unauthorised(writer, "Invalid login credentials")
		return
	}

	token, _, err := h.Issuer.Issue(credentials.User)
	if err != nil {
		JSON.InternalServerError(writer, rest.Logger(request), err)
		return
	}

	setCookie(writer, token, int(h.Issuer.Lifetime().Seconds()), h.SecureCookie)
	JSON.Ok(writer, LoginResponse{
		Message: "Login successful",
		Token:   token,
		User:    UserInfo{Id: credentials.Id, Login: credentials.Login, Email: credentials.Email},
	})
}

// logout drops the cookie; tokens stay valid until expiry for clients holding them elsewhere.
func (h Handlers) logout(writer http.ResponseWriter, _ *http.Request) {
	ClearCookie(writer, h.SecureCookie)
	JSON.OkWithMessage(writer, "User logged out successfully")
}

func (h Handlers) protected(writer http.ResponseWriter, request *http.Request) {
	var user = MustGetUser(request)
	JSON.OkWithMessage(writer, fmt.Sprintf("Hello %s, you have access!", user.Login))
}

func (h Handlers) requestPasswordReset(writer http.ResponseWriter, request *http.Request) {
	data, err := JSON.DecodeValidate[ResetRequestData](request)
	if err != nil {
		JSON.ValidationError(writer, err)
		return
	}

	userId, err := h.Repository.GetUserIdByEmail(request.Context(), data.Email)
	if errors.Is(err, ErrNotFound) {
		JSON.NotFound(writer, "Email not found")
		return
	} else if err != nil {
		JSON.InternalServerError(writer, rest.Logger(request), err)
		return
	}

	token, err := newResetToken()
	if err != nil {
		JSON.InternalServerError(writer, rest.Logger(request), err)
		return
	}

	var expires = time.Now().Add(h.ResetLifetime)
	if err = h.Repository.AddResetToken(request.Context(), userId, token, expires); err != nil {
		JSON.InternalServerError(writer, rest.Logger(request), err)
		return
	}

	var link = strings.TrimSuffix(h.ResetURL, "/") + "/" + token
	if err = h.Notifier.SendPasswordReset(request.Context(), data.Email, link); err != nil {
		rest.Logger(request).WithError(err).WithField("user", userId).Error("password reset delivery failed")
		JSON.Respond(writer, http.StatusInternalServerError, JSON.ErrorBody{Error: "Failed to send email"})
		return
	}

	JSON.OkWithMessage(writer, "Password reset link sent to your email")
}

func (h Handlers) confirmPasswordReset(writer http.ResponseWriter, request *http.Request) {
	var token = rest.GetParam(request, "token")

	data, err := JSON.DecodeValidate[NewPasswordData](request)
	if err != nil {
		JSON.ValidationError(writer, err)
		return
	}

	hash, err := h.Hasher.Hash(data.NewPassword)
	if err != nil {
		JSON.InternalServerError(writer, rest.Logger(request), err)
		return
	}

	if err = h.Repository.ResetPassword(request.Context(), token, hash, time.Now()); errors.Is(err, ErrInvalidToken) {
		JSON.BadRequest(writer, "Invalid or expired token")
	} else if err != nil {
		JSON.InternalServerError(writer, rest.Logger(request), err)
	} else {
		JSON.OkWithMessage(writer, "Password reset successfully")
	}
}
