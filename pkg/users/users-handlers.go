package users

import (
	"errors"
	"github.com/silktrader/usof/pkg/auth"
	JSON "github.com/silktrader/usof/pkg/json-utilities"
	"github.com/silktrader/usof/pkg/rest"
	"net/http"
)

// avatarPath shares the PATCH route of user ids, as the router can't register both patterns.
const avatarPath = "avatar"

type Options struct {
	// ExposePasswordHash keeps hashes in user reads, as some legacy clients expect
	ExposePasswordHash bool
}

func RegisterHandlers(engine *rest.Engine, ur UserRepository, gate *auth.Gate, hasher auth.Hasher, options Options) {
	engine.Get("/api/users", getUsers(ur, options), gate.Authenticate)
	engine.Get("/api/users/:id", getUser(ur, options), gate.Authenticate)
	engine.Post("/api/users", addUser(ur, hasher), gate.Authenticate, gate.RequireAdmin)
	engine.Patch("/api/users/:id", patchUser(updateAvatar(ur), gate.RequireAdmin(updateUser(ur))), gate.Authenticate)
	engine.Delete("/api/users/:id", deleteUser(ur), gate.Authenticate, gate.RequireAdmin)
}

func getUsers(ur UserRepository, options Options) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var users, err = ur.GetAll(request.Context())
		if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		for i := range users {
			users[i] = options.present(users[i])
		}
		JSON.Ok(writer, users)
	}
}

func getUser(ur UserRepository, options Options) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		user, err := ur.GetById(request.Context(), id)
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer, "User not found")
			return
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		JSON.Ok(writer, options.present(user))
	}
}

func (o Options) present(user User) User {
	if !o.ExposePasswordHash {
		user.Password = ""
	}
	return user
}

func addUser(ur UserRepository, hasher auth.Hasher) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		// parse and validate the user data
		data, err := JSON.DecodeValidate[AddUserData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		hash, err := hasher.Hash(data.Password)
		if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}

		id, err := ur.Add(request.Context(), data, hash)
		switch {
		case errors.Is(err, ErrDuplicateUser):
			JSON.Conflict(writer, "Login or email is already taken")
		case errors.Is(err, ErrUnknownRole):
			JSON.BadRequest(writer, "Role doesn't exist")
		case err != nil:
			JSON.InternalServerError(writer, rest.Logger(request), err)
		default:
			rest.Logger(request).WithField("user", id).Info("user created by administrator")
			JSON.CreatedWithId(writer, id, "User created")
		}
	}
}

// patchUser routes avatar changes, open to every authenticated user, apart from administrative updates.
func patchUser(avatar http.Handler, update http.Handler) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if rest.GetParam(request, "id") == avatarPath {
			avatar.ServeHTTP(writer, request)
			return
		}
		update.ServeHTTP(writer, request)
	}
}

func updateUser(ur UserRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		data, err := JSON.DecodeValidate[UpdateUserData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		switch err = ur.Update(request.Context(), id, data); {
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, "User not found")
		case errors.Is(err, ErrDuplicateUser):
			JSON.Conflict(writer, "Login or email is already taken")
		case errors.Is(err, ErrUnknownRole):
			JSON.BadRequest(writer, "Role doesn't exist")
		case err != nil:
			JSON.InternalServerError(writer, rest.Logger(request), err)
		default:
			JSON.OkWithMessage(writer, "User successfully updated")
		}
	}
}

func updateAvatar(ur UserRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var user = auth.MustGetUser(request)

		data, err := JSON.DecodeValidate[UpdateAvatarData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		// the token may outlive its user
		if err = ur.UpdateAvatar(request.Context(), user.Id, data.AvatarURL); errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer, "User not found")
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
		} else {
			JSON.OkWithMessage(writer, "Avatar updated successfully")
		}
	}
}

func deleteUser(ur UserRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		if err = ur.Delete(request.Context(), id); errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer, "User not found")
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
		} else {
			rest.Logger(request).WithField("user", id).Info("user deleted")
			JSON.OkWithMessage(writer, "User deleted successfully")
		}
	}
}
