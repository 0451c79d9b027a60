// Package response defines the JSON envelope every API handler returns.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/pkg/pagination"
)

// Envelope is the uniform response body.
type Envelope struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message"`
	Data       interface{}      `json:"data,omitempty"`
	Errors     []string         `json:"errors,omitempty"`
	Pagination *pagination.Meta `json:"pagination,omitempty"`
}

// OK writes a 200 envelope.
func OK(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 envelope.
func Created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Paginated writes a 200 envelope with pagination metadata.
func Paginated(c echo.Context, message string, data interface{}, total int, p pagination.Params) error {
	meta := pagination.NewMeta(total, p.Limit, p.Offset)
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data, Pagination: &meta})
}

// Fail writes an error envelope with the given status.
func Fail(c echo.Context, status int, message string, errs ...string) error {
	return c.JSON(status, Envelope{Success: false, Message: message, Errors: errs})
}

// ErrorHandler renders every error that escapes a handler as the standard
// envelope. Unexpected errors get a generic message outside development.
func ErrorHandler(dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"
		var errs []string

		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(status)
			}
		} else if dev {
			errs = []string{err.Error()}
		}

		_ = c.JSON(status, Envelope{Success: false, Message: message, Errors: errs})
	}
}
