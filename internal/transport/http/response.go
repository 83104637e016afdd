package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tts-server-go/internal/platform/errors"
)

// ErrorResponse 统一的错误返回结构体
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// RespondError 返回失败响应
func RespondError(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, ErrorResponse{
		Success: false,
		Error:   message,
	})
}

// StatusForError 按错误类别映射 HTTP 状态码
func StatusForError(err error) int {
	switch {
	case errors.IsKind(err, errors.KindValidation):
		return http.StatusBadRequest
	case errors.IsKind(err, errors.KindNotFound):
		return http.StatusNotFound
	case errors.IsKind(err, errors.KindSynth),
		errors.IsKind(err, errors.KindStorage):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
