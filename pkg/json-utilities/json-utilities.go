package json_utilities

import (
	"encoding/json"
	"errors"
	"github.com/sirupsen/logrus"
	"io"
	"net/http"
)

var (
	errEncoding      = errors.New("error while encoding response")
	ErrEmptyBody     = errors.New("request body is empty")
	ErrMalformedBody = errors.New("request body is not valid JSON")
)

// ErrorBody is the payload of every failed response.
type ErrorBody struct {
	Error string `json:"error"`
}

// MessageBody is the payload of successful responses that carry no resource.
type MessageBody struct {
	Message string `json:"message"`
}

// CreatedBody acknowledges a new resource along with its identifier.
type CreatedBody struct {
	Id      int64  `json:"id"`
	Message string `json:"message"`
}

func Created(writer http.ResponseWriter, payload interface{}) {
	encodeJSON(writer, http.StatusCreated, payload)
}

func CreatedWithId(writer http.ResponseWriter, id int64, message string) {
	encodeJSON(writer, http.StatusCreated, CreatedBody{Id: id, Message: message})
}

func Ok(writer http.ResponseWriter, payload interface{}) {
	encodeJSON(writer, http.StatusOK, payload)
}

func OkWithMessage(writer http.ResponseWriter, message string) {
	encodeJSON(writer, http.StatusOK, MessageBody{message})
}

func NotFound(writer http.ResponseWriter, message string) {
	encodeError(writer, http.StatusNotFound, message)
}

func BadRequest(writer http.ResponseWriter, message string) {
	encodeError(writer, http.StatusBadRequest, message)
}

func Unauthorised(writer http.ResponseWriter, message string) {
	encodeError(writer, http.StatusUnauthorized, message)
}

func Forbidden(writer http.ResponseWriter, message string) {
	encodeError(writer, http.StatusForbidden, message)
}

func Conflict(writer http.ResponseWriter, message string) {
	encodeError(writer, http.StatusConflict, message)
}

// InternalServerError logs the cause and replies with a generic message, keeping driver details private.
func InternalServerError(writer http.ResponseWriter, logger logrus.FieldLogger, err error) {
	logger.WithError(err).Error("request failed")
	encodeError(writer, http.StatusInternalServerError, "Internal server error")
}

func ValidationError(writer http.ResponseWriter, err error) {
	encodeError(writer, http.StatusBadRequest, err.Error())
}

// Respond writes any payload with an arbitrary status.
func Respond(writer http.ResponseWriter, status int, payload interface{}) {
	encodeJSON(writer, status, payload)
}

func encodeError(writer http.ResponseWriter, status int, message string) {
	encodeJSON(writer, status, ErrorBody{message})
}

func encodeJSON(writer http.ResponseWriter, status int, payload interface{}) {
	// marshal before writing headers, a failed encoding can still turn into a proper 500
	var body, err = json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorBody{errEncoding.Error()})
	}
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_, _ = writer.Write(append(body, '\n'))
}

// Decode parses the request body into data without validating it.
func Decode(request *http.Request, data interface{}) error {
	if request.Body == nil || request.Body == http.NoBody {
		return ErrEmptyBody
	}
	if err := json.NewDecoder(request.Body).Decode(data); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return ErrMalformedBody
	}
	return nil
}

// DecodeValidate parses the request body and applies the payload's own validation rules.
func DecodeValidate[T Validator](request *http.Request) (data T, err error) {
	if err = Decode(request, &data); err != nil {
		return data, err
	}
	return data, data.Validate()
}

type Validator interface {
	Validate() error
}
