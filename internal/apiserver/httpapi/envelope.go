package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Meta 分页元信息
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// Envelope 统一响应信封
type Envelope struct {
	Success       bool        `json:"success"`
	Message       string      `json:"message"`
	Data          interface{} `json:"data,omitempty"`
	Meta          *Meta       `json:"meta,omitempty"`
	ErrorMessages []ErrorItem `json:"errorMessages,omitempty"`
}

// WriteJSON 写入任意 JSON 响应
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteData 写入成功信封
func WriteData(w http.ResponseWriter, status int, message string, data interface{}) {
	WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// WriteDataMeta 写入带分页元信息的成功信封
func WriteDataMeta(w http.ResponseWriter, status int, message string, data interface{}, meta *Meta) {
	WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data, Meta: meta})
}

// WriteError 写入错误信封
//
// 非 *AppError 的错误一律按 500 处理，不向客户端泄露内部细节。
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = Internal("internal error")
	}
	items := appErr.Items
	if len(items) == 0 {
		items = []ErrorItem{{Path: "", Message: appErr.Message}}
	}
	WriteJSON(w, appErr.Status, Envelope{
		Success:       false,
		Message:       appErr.Message,
		ErrorMessages: items,
	})
}
