package server

import (
	"errors"
	"fmt"
	"net/http"

	"Tunebox/core/auth"
	"Tunebox/core/composer"
	"Tunebox/db"
	"Tunebox/logger"
	"Tunebox/repository"
	"Tunebox/storage"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// errorBody 统一错误响应
type errorBody struct {
	TypeError string   `json:"typeError"`
	Message   string   `json:"message"`
	ListError []string `json:"listError"`
	Stack     string   `json:"stack,omitempty"`
}

// apiError 带状态码的错误
type apiError struct {
	status  int
	message string
	list    []string
	cause   error
}

func (e *apiError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	if len(e.list) > 0 {
		return fmt.Sprint(e.list)
	}
	return e.message
}

func (e *apiError) Unwrap() error { return e.cause }

func badRequest(message string) *apiError {
	return &apiError{status: http.StatusBadRequest, message: message}
}

func badRequestList(list []string) *apiError {
	return &apiError{status: http.StatusBadRequest, list: list}
}

func mediaFailure(err error) *apiError {
	return &apiError{status: http.StatusBadGateway, message: "Media upload failed", cause: err}
}

// classify 把领域错误映射为 HTTP 错误
func classify(err error) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}
	var verr *repository.ValidationError
	if errors.As(err, &verr) {
		return badRequestList(verr.Problems)
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return badRequestList(describeValidation(fieldErrs))
	}

	switch {
	case errors.Is(err, composer.ErrInvalidID):
		return &apiError{status: http.StatusBadRequest, message: "Invalid id"}
	case errors.Is(err, composer.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return &apiError{status: http.StatusNotFound, message: "Resource not found"}
	case errors.Is(err, auth.ErrInvalidToken):
		return &apiError{status: http.StatusUnauthorized, message: "Not authorized, invalid token"}
	case errors.Is(err, repository.ErrInvalidCredentials):
		return &apiError{status: http.StatusUnauthorized, message: "Invalid username or password"}
	case errors.Is(err, repository.ErrInactive):
		return &apiError{status: http.StatusForbidden, message: "Account is inactive"}
	case errors.Is(err, repository.ErrForbidden):
		return &apiError{status: http.StatusForbidden, message: "Not the owner of this resource"}
	case errors.Is(err, repository.ErrUsernameTaken), errors.Is(err, db.ErrDuplicate):
		return &apiError{status: http.StatusConflict, message: "Username already exists"}
	case errors.Is(err, repository.ErrPlaylistNotEmpty):
		return &apiError{status: http.StatusBadRequest, message: "Playlist still contains songs"}
	case errors.Is(err, storage.ErrUnavailable):
		return &apiError{status: http.StatusServiceUnavailable, message: "Media service unavailable", cause: err}
	}
	return &apiError{status: http.StatusInternalServerError, message: "Internal server error", cause: err}
}

// writeJSON 输出 JSON 响应
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", logger.ErrorField(err))
	}
}

// writeError 输出统一错误响应，非生产环境附带错误链
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := classify(err)
	if ae.status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
	}

	body := errorBody{TypeError: "string", Message: ae.message, ListError: []string{}}
	if len(ae.list) > 0 {
		body.TypeError = "array"
		body.Message = ""
		body.ListError = ae.list
	}
	if !h.cfg.IsProduction() {
		body.Stack = err.Error()
	}
	writeJSON(w, ae.status, body)
}

// idResponse 删除类接口的响应
type idResponse struct {
	ID string `json:"id"`
}

// likeResponse 点赞响应
type likeResponse struct {
	CategoryID string `json:"categoryId,omitempty"`
	ID         string `json:"id"`
	LikeCount  int64  `json:"likeCount"`
}

// listResponse 分页列表响应
type listResponse[T any] struct {
	Data       []T                 `json:"data"`
	Pagination composer.Pagination `json:"pagination"`
}

func pageResponse[T any](p *composer.Page[T]) listResponse[T] {
	return listResponse[T]{Data: p.Items, Pagination: p.Pagination}
}
