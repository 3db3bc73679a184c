package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yuridenisov/oims/internal/domain"
)

// Response — единый конверт ответов API.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SuccessResponse отправляет успешный ответ в общем конверте.
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// ErrorResponse отправляет ответ об ошибке в общем конверте.
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Status:  "error",
		Message: message,
	})
}

// statusFromError переводит доменную ошибку в HTTP-статус.
// Сопоставление идёт по типам и sentinel-ошибкам, не по тексту.
func statusFromError(err error) int {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsConflict(err), errors.Is(err, domain.ErrUserHasOrders):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict
	case domain.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError отправляет ошибку с автоматически подобранным статусом.
func respondError(c *gin.Context, err error) {
	ErrorResponse(c, statusFromError(err), err.Error())
}
