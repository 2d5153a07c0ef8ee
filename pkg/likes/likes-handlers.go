package likes

import (
	"errors"
	"github.com/silktrader/usof/pkg/auth"
	JSON "github.com/silktrader/usof/pkg/json-utilities"
	"github.com/silktrader/usof/pkg/rest"
	"net/http"
)

// RegisterHandlers serves votes for both posts and comments, nested under their targets.
func RegisterHandlers(engine *rest.Engine, lr LikeRepository, gate *auth.Gate) {
	for _, target := range []struct {
		path       string
		targetType TargetType
	}{
		{"/api/posts/:id/like", TargetPost},
		{"/api/comments/:id/like", TargetComment},
	} {
		engine.Get(target.path, getLikes(lr, target.targetType))
		engine.Post(target.path, setLike(lr, target.targetType), gate.Authenticate)
		engine.Delete(target.path, removeLike(lr, target.targetType), gate.Authenticate)
	}
}

func getLikes(lr LikeRepository, targetType TargetType) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		targetId, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		likes, err := lr.GetByTarget(request.Context(), targetType, targetId)
		if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		JSON.Ok(writer, LikesBody{Likes: likes})
	}
}

// setLike answers 201 for first votes and changes alike, with the same id in both cases.
func setLike(lr LikeRepository, targetType TargetType) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var user = auth.MustGetUser(request)

		targetId, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		data, err := JSON.DecodeValidate[LikeData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		id, err := lr.Set(request.Context(), user.Id, targetType, targetId, data.Type)
		if errors.Is(err, ErrTargetNotFound) {
			JSON.NotFound(writer, notFoundMessage(targetType))
			return
		} else if errors.Is(err, ErrUnknownAuthor) {
			JSON.NotFound(writer, "User not found")
			return
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
			return
		}
		JSON.CreatedWithId(writer, id, "Like or dislike recorded for the "+string(targetType))
	}
}

func removeLike(lr LikeRepository, targetType TargetType) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var user = auth.MustGetUser(request)

		targetId, err := rest.GetIdParam(request, "id")
		if err != nil {
			JSON.BadRequest(writer, err.Error())
			return
		}

		if err = lr.Remove(request.Context(), user.Id, targetType, targetId); errors.Is(err, ErrNotFound) {
			JSON.NotFound(writer, "Like not found")
		} else if err != nil {
			JSON.InternalServerError(writer, rest.Logger(request), err)
		} else {
			JSON.OkWithMessage(writer, "Like removed successfully")
		}
	}
}

func notFoundMessage(targetType TargetType) string {
	if targetType == TargetComment {
		return "Comment not found"
	}
	return "Post not found"
}
