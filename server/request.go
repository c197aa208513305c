package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"Tunebox/core/composer"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator 单例校验器，错误信息使用 json 字段名
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// validateStruct 校验请求结构体
func validateStruct(v interface{}) error {
	return getValidator().Struct(v)
}

// describeValidation 把字段错误转换成可读信息
func describeValidation(errs validator.ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required", fe.Field()))
		case "min":
			if fe.Param() == "1" {
				out = append(out, fmt.Sprintf("%s must not be empty", fe.Field()))
				continue
			}
			out = append(out, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		case "max":
			out = append(out, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "uuid":
			out = append(out, fmt.Sprintf("%s must be a valid id", fe.Field()))
		case "gte":
			out = append(out, fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param()))
		default:
			out = append(out, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return out
}

// decodeJSON 解析并校验 JSON 请求体
func decodeJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return badRequest("Invalid request body")
	}
	return validateStruct(dest)
}

// listQuery 列表查询参数
type listQuery struct {
	Page     int `json:"page" validate:"gte=0"`
	Limit    int `json:"limit" validate:"gte=0"`
	Name     string
	TypeSort string
}

// parseListRequest 读取 page、limit、name、typeSort
func parseListRequest(r *http.Request) (composer.Request, error) {
	q := r.URL.Query()
	lq := listQuery{Name: strings.TrimSpace(q.Get("name")), TypeSort: q.Get("typeSort")}
	var problems []string
	for _, p := range []struct {
		key  string
		dest *int
	}{{"page", &lq.Page}, {"limit", &lq.Limit}} {
		raw := strings.TrimSpace(q.Get(p.key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s must be a number", p.key))
			continue
		}
		*p.dest = n
	}
	if len(problems) > 0 {
		return composer.Request{}, badRequestList(problems)
	}
	if err := validateStruct(&lq); err != nil {
		return composer.Request{}, err
	}
	return composer.Request{
		Search: lq.Name,
		Page:   lq.Page,
		Limit:  lq.Limit,
		Sort:   composer.ParseSortMode(lq.TypeSort),
	}, nil
}

// queryInt 可选的整数查询参数
func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(fmt.Sprintf("%s must be a number", key))
	}
	return n, nil
}

// formString 表单字段，未提交时返回 nil。需先调用 parseForm
func formString(r *http.Request, key string) *string {
	if _, ok := r.PostForm[key]; !ok {
		return nil
	}
	v := strings.TrimSpace(r.PostForm.Get(key))
	return &v
}

// parseForm 解析 multipart 或 urlencoded 表单
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return badRequest("Failed to parse form")
	}
	return nil
}
