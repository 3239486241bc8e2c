package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cleaning-booking/internal/service"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

var categories = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrValidation, http.StatusBadRequest, "validation_error"},
	{service.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrConflict, http.StatusConflict, "conflict"},
}

// ErrorHandler maps service error categories to status codes. Anything
// unrecognised is logged and answered with a generic 500.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err))
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}

func classify(err error) (int, errorBody) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, errorBody{
			Error:   "validation_error",
			Message: "request validation failed",
			Details: fieldErrors(verrs),
		}
	}
	for _, cat := range categories {
		if errors.Is(err, cat.err) {
			return cat.status, errorBody{Error: cat.code, Message: message(err, cat.err)}
		}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		return he.Code, errorBody{Error: strings.ToLower(strings.ReplaceAll(http.StatusText(he.Code), " ", "_")), Message: msg}
	}
	return http.StatusInternalServerError, errorBody{Error: "internal_error", Message: "internal server error"}
}

// message strips the category prefix, so "not found: booking" reads
// "booking".
func message(err, category error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, category.Error()+": "); ok && rest != "" {
		return rest
	}
	return msg
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "is required"
		case "email":
			out[fe.Field()] = "must be a valid email"
		case "min":
			out[fe.Field()] = "must be at least " + fe.Param() + " characters"
		case "max":
			out[fe.Field()] = "must be at most " + fe.Param() + " characters"
		case "len":
			out[fe.Field()] = "must be exactly " + fe.Param() + " characters"
		case "numeric":
			out[fe.Field()] = "must contain digits only"
		case "oneof":
			out[fe.Field()] = "must be one of " + fe.Param()
		default:
			out[fe.Field()] = "is invalid"
		}
	}
	return out
}
