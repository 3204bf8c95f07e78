// Package httpapi 统一响应信封与领域错误映射
//
// 所有领域处理器通过本包写响应，保证信封格式一致：
//
//	成功: {"success":true,"message":...,"data":...,"meta":...}
//	失败: {"success":false,"message":...,"errorMessages":[{"path":...,"message":...}]}
//
// 领域错误携带 HTTP 状态码；边界层统一捕获映射，内部细节不外泄。
package httpapi

import (
	"errors"
	"net/http"

	"contenthub/internal/shared/storage"
)

// ErrorItem 错误明细条目
type ErrorItem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// AppError 带 HTTP 状态码的领域错误
type AppError struct {
	Status  int
	Message string
	Items   []ErrorItem
}

func (e *AppError) Error() string { return e.Message }

// NewError 创建领域错误
func NewError(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

// 常用错误构造
func BadRequest(msg string) *AppError   { return NewError(http.StatusBadRequest, msg) }
func Unauthorized(msg string) *AppError { return NewError(http.StatusUnauthorized, msg) }
func Forbidden(msg string) *AppError    { return NewError(http.StatusForbidden, msg) }
func NotFound(msg string) *AppError     { return NewError(http.StatusNotFound, msg) }
func Conflict(msg string) *AppError     { return NewError(http.StatusConflict, msg) }
func Internal(msg string) *AppError     { return NewError(http.StatusInternalServerError, msg) }

// FromStorage 将存储层领域错误映射为 AppError
func FromStorage(err error, notFoundMsg, conflictMsg string) *AppError {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return NotFound(notFoundMsg)
	case errors.Is(err, storage.ErrConflict), errors.Is(err, storage.ErrDuplicate):
		return Conflict(conflictMsg)
	}
	return Internal("internal error")
}
