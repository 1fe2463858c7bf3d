package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/pharmalink/marketplace-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Error writes an error response with the HTTP status matching the error's
// application code.
func Error(c *gin.Context, err error) {
	c.JSON(HTTPStatus(err), NewErrorResponse(err.Error()))
}

func HTTPStatus(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrBadRequest:
		return http.StatusBadRequest
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrForbidden:
		return http.StatusForbidden
	case apperrors.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
