package auth

import (
	"context"
	"errors"
	JSON "github.com/silktrader/usof/pkg/json-utilities"
	"github.com/silktrader/usof/pkg/rest"
	"github.com/silktrader/usof/pkg/storage/sqlite"
	"net/http"
	"strings"
)

// CookieName is the cookie carrying the token, as an alternative to the Authorization header.
const CookieName = "token"

type userKey struct{}

var ErrNoUser = errors.New("missing authenticated user")

/* The gate depends on an interface rather than the users package to avoid cyclic imports, as the latter registers
routes behind the gate. */

type roleReader interface {
	GetRoleId(ctx context.Context, userId int64) (int64, error)
}

// Gate verifies tokens before handlers run. It performs no store lookup, except for the admin guard when
// role revalidation is enabled.
type Gate struct {
	issuer         *Issuer
	roles          roleReader
	revalidateRole bool
}

func NewGate(issuer *Issuer, roles roleReader, revalidateRole bool) *Gate {
	return &Gate{issuer: issuer, roles: roles, revalidateRole: revalidateRole}
}

// Authenticate requires a valid token in the "token" cookie or in a bearer Authorization header.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var token = extractToken(request)
		if token == "" {
			writer.Header().Set("WWW-Authenticate", "Bearer")
			JSON.Unauthorised(writer, "Authentication required")
			return
		}

		user, err := g.issuer.Verify(token)
		if err != nil {
			rest.Logger(request).WithError(err).Debug("rejected token")
			ClearCookie(writer, false)
			JSON.Forbidden(writer, "Invalid or expired token")
			return
		}

		// create a new context, stemming from the original one, adding the user for future reference
		next.ServeHTTP(writer, request.WithContext(context.WithValue(request.Context(), userKey{}, user)))
	})
}

// RequireAdmin must follow Authenticate. It admits only callers holding the admin role, read from the store when
// revalidation is enabled and from the token otherwise.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		user, err := GetUser(request)
		if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}

		var roleId = user.RoleId
		if g.revalidateRole {
			roleId, err = g.roles.GetRoleId(request.Context(), user.Id)
			if errors.Is(err, ErrNotFound) {
				JSON.Forbidden(writer, "Access denied")
				return
			} else if err != nil {
				JSON.InternalServerError(writer, rest.Logger(request), err)
				return
			}
		}

		if roleId != sqlite.RoleAdmin {
			JSON.Forbidden(writer, "Access denied")
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// extractToken prefers the cookie, then the bearer header.
func extractToken(request *http.Request) string {
	if cookie, err := request.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	var header = request.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// GetUser returns the authenticated user, or an error to detect a possibly missing gate.
func GetUser(request *http.Request) (User, error) {
	user, ok := request.Context().Value(userKey{}).(User)
	if !ok {
		return User{}, ErrNoUser
	}
	return user, nil
}

// MustGetUser is GetUser for handlers registered behind the gate.
func MustGetUser(request *http.Request) User {
	user, err := GetUser(request)
	if err != nil {
		panic(err)
	}
	return user
}

func setCookie(writer http.ResponseWriter, token string, maxAge int, secure bool) {
	http.SetCookie(writer, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie instructs the client to drop the token cookie.
func ClearCookie(writer http.ResponseWriter, secure bool) {
	setCookie(writer, "", -1, secure)
}
