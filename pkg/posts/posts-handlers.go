package posts

import (
	"errors"
	"github.com/silktrader/usof/pkg/auth"
	JSON "github.com/silktrader/usof/pkg/json-utilities"
	"github.com/silktrader/usof/pkg/rest"
	"net/http"
	"strconv"
)

func RegisterHandlers(engine *rest.Engine, pr PostRepository, gate *auth.Gate) {
	engine.Get("/api/posts", getPosts(pr))
	engine.Post("/api/posts", addPost(pr), gate.Authenticate)
	engine.Get("/api/posts/:id", getPost(pr))
	engine.Patch("/api/posts/:id", updatePost(pr), gate.Authenticate)
	engine.Delete("/api/posts/:id", deletePost(pr), gate.Authenticate)
	engine.Get("/api/posts/:id/categories", getPostCategories(pr))
}

// getPosts treats missing, malformed and non-positive pages as the first one.
func getPosts(pr PostRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		page, err := strconv.Atoi(request.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}

		posts, err := pr.GetPage(request.Context(), page)
		if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		JSON.Ok(writer, PostsPage{Posts: posts, Page: page})
	}
}

func getPost(pr PostRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		post, err := pr.GetById(request.Context(), id)
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer, "Post not found")
			return
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		JSON.Ok(writer, post)
	}
}

func getPostCategories(pr PostRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		categories, err := pr.GetCategories(request.Context(), id)
		if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		JSON.Ok(writer, CategoriesBody{Categories: categories})
	}
}

func addPost(pr PostRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var user = auth.MustGetUser(request)

		data, err := JSON.DecodeValidate[AddPostData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		id, err := pr.Add(request.Context(), user.Id, data)
		if errors.Is(err, ErrUnknownCategory) {
			JSON.BadRequest(writer, "One or more categories don't exist")
			return
		} else if errors.Is(err, ErrUnknownAuthor) {
			JSON.NotFound(writer, "User not found")
			return
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		JSON.CreatedWithId(writer, id, "Post created")
	}
}

func updatePost(pr PostRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var user = auth.MustGetUser(request)

		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		data, err := JSON.DecodeValidate[UpdatePostData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		switch err = pr.Update(request.Context(), id, user.Id, data.Changes()); {
		case errors.Is(err, ErrNotOwner):
			JSON.Forbidden(writer, "Access denied or post not found")
		case errors.Is(err, ErrNoChanges):
			JSON.OkWithMessage(writer, "No fields to update")
		case errors.Is(err, ErrUnknownCategory):
			JSON.BadRequest(writer, "One or more categories don't exist")
		case err != nil:
			JSON.InternalServerError(writer, rest.Logger(request), err)
		default:
			JSON.OkWithMessage(writer, "Post updated successfully")
		}
	}
}

func deletePost(pr PostRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var user = auth.MustGetUser(request)

		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		if err = pr.Delete(request.Context(), id, user.Id); errors.Is(err, ErrNotOwner) {
			JSON.Forbidden(writer, "Access denied or post not found")
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
		} else {
			JSON.OkWithMessage(writer, "Post deleted successfully")
		}
	}
}
