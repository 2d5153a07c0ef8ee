package categories

import (
	"errors"
	"github.com/silktrader/usof/pkg/auth"
	JSON "github.com/silktrader/usof/pkg/json-utilities"
	"github.com/silktrader/usof/pkg/rest"
	"net/http"
)

type Options struct {
	// AdminOnly restricts mutations to administrators rather than any authenticated user
	AdminOnly bool
}

func RegisterHandlers(engine *rest.Engine, cr CategoryRepository, gate *auth.Gate, options Options) {
	var guards = []rest.Middleware{gate.Authenticate}
	if options.AdminOnly {
		guards = append(guards, gate.RequireAdmin)
	}

	engine.Get("/api/categories", getCategories(cr))
	engine.Get("/api/categories/:id", getCategory(cr))
	engine.Get("/api/categories/:id/posts", getCategoryPosts(cr))
	engine.Post("/api/categories", addCategory(cr), guards...)
	engine.Patch("/api/categories/:id", updateCategory(cr), guards...)
	engine.Delete("/api/categories/:id", deleteCategory(cr), guards...)
}

func getCategories(cr CategoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		categories, err := cr.GetAll(request.Context())
		if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		JSON.Ok(writer, CategoriesBody{Categories: categories})
	}
}

func getCategory(cr CategoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		category, err := cr.GetById(request.Context(), id)
		if errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer, "Category not found")
			return
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		JSON.Ok(writer, category)
	}
}

func getCategoryPosts(cr CategoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		posts, err := cr.GetPosts(request.Context(), id)
		if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		JSON.Ok(writer, PostsBody{Posts: posts})
	}
}

func addCategory(cr CategoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		data, err := JSON.DecodeValidate[CategoryData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		id, err := cr.Add(request.Context(), data)
		if errors.Is(err, ErrDuplicateTitle) {
			JSON.Conflict(writer, "Category title is already taken")
			return
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		JSON.CreatedWithId(writer, id, "Category created")
	}
}

func updateCategory(cr CategoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		data, err := JSON.DecodeValidate[CategoryData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		switch err = cr.Update(request.Context(), id, data); {
		case errors.Is(err, ErrNotFound):
			JSON.NotFound(writer, "Category not found")
		case errors.Is(err, ErrDuplicateTitle):
			JSON.Conflict(writer, "Category title is already taken")
		case err != nil:
			JSON.InternalServerError(writer, rest.Logger(request), err)
		default:
			JSON.OkWithMessage(writer, "Category updated successfully")
		}
	}
}

func deleteCategory(cr CategoryRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		if err = cr.Delete(request.Context(), id); errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer, "Category not found")
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
		} else {
			JSON.OkWithMessage(writer, "Category deleted successfully")
		}
	}
}
