package comments

import (
	"errors"
	"github.com/silktrader/usof/pkg/auth"
	JSON "github.com/silktrader/usof/pkg/json-utilities"
	"github.com/silktrader/usof/pkg/rest"
	"net/http"
)

type Options struct {
	// RequireOwnership restricts edits and deletions to the comment's author; otherwise anyone may perform them
	RequireOwnership bool
}

func RegisterHandlers(engine *rest.Engine, cr CommentRepository, gate *auth.Gate, options Options) {
	engine.Get("/api/posts/:id/comments", getPostComments(cr))
	engine.Post("/api/posts/:id/comments", addComment(cr), gate.Authenticate)
	engine.Get("/api/comments/:id", getComment(cr))

	var guards []rest.Middleware
	if options.RequireOwnership {
		guards = []rest.Middleware{gate.Authenticate, requireAuthor(cr)}
	}
	engine.Put("/api/comments/:id", updateComment(cr), guards...)
	engine.Patch("/api/comments/:id", updateComment(cr), guards...)
	engine.Delete("/api/comments/:id", deleteComment(cr), guards...)
}

func getPostComments(cr CommentRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		postId, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		comments, err := cr.GetByPost(request.Context(), postId)
		if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		JSON.Ok(writer, CommentsBody{Comments: comments})
	}
}

func addComment(cr CommentRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var user = auth.MustGetUser(request)

		postId, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		data, err := JSON.DecodeValidate[CommentData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		id, err := cr.Add(request.Context(), user.Id, postId, data.Content)
		if errors.Is(err, ErrPostNotFound) {
			JSON.NotFound(writer, "Post not found")
			return
		} else if errors.Is(err, ErrUnknownAuthor) {
			JSON.NotFound(writer, "User not found")
			return
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		JSON.CreatedWithId(writer, id, "Comment created")
	}
}

func getComment(cr CommentRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		comment, err := cr.GetById(request.Context(), id)
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer, "Comment not found")
			return
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		JSON.Ok(writer, CommentBody{Comment: comment})
	}
}

func updateComment(cr CommentRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		data, err := JSON.DecodeValidate[CommentData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		if err = cr.Update(request.Context(), id, data.Content); errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer, "Comment not found")
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
		} else {
			JSON.OkWithMessage(writer, "Comment updated successfully")
		}
	}
}

func deleteComment(cr CommentRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		if err = cr.Delete(request.Context(), id); errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer, "Comment not found")
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
		} else {
			JSON.OkWithMessage(writer, "Comment deleted successfully")
		}
	}
}

// requireAuthor must follow the authentication gate.
func requireAuthor(cr CommentRepository) rest.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			id, err := rest.GetIdParam(request, "id")
			if err != nil {
				JSON.BadRequest(writer, err.Error())
				return
			}

			authorId, err := cr.GetAuthorId(request.Context(), id)
			if errors.Is(err, ErrNotFound) {
				JSON.NotFound(writer, "Comment not found")
				return
			} else if err != nil {
				JSON.InternalServerError(writer, rest.Logger(request), err)
				return
			}

			if authorId != auth.MustGetUser(request).Id {
				JSON.Forbidden(writer, "Access denied")
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}
