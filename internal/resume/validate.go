package resume

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid 表示简历数据未通过结构校验。
var ErrInvalid = errors.New("invalid resume data")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// FieldError 描述单个字段的校验失败原因。
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError 聚合全部字段错误，errors.Is(err, ErrInvalid) 为真。
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Field, f.Rule))
	}
	return "invalid resume data: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Validate 检查各列表内 ID 非空且唯一。
func Validate(d Data) error {
	err := structValidator().Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate resume: %w", err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field: strings.TrimPrefix(fe.Namespace(), "Data."),
			Rule:  fe.Tag(),
		})
	}
	return out
}

// Normalize 在写入边界修正数据：技能等级收敛到 [1,5]。
// 渲染层不做任何修正。
func Normalize(d Data) Data {
	out := d.Clone()
	for i := range out.Skills {
		out.Skills[i].Level = ClampLevel(out.Skills[i].Level)
	}
	return out
}

// ClampLevel 将等级限制在 MinSkillLevel 与 MaxSkillLevel 之间。
func ClampLevel(level int) int {
	return min(max(level, MinSkillLevel), MaxSkillLevel)
}
