package resume

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

// ErrSchema 表示原始 JSON 不符合简历结构。
var ErrSchema = errors.New("resume json does not match schema")

// SchemaError 列出 JSON Schema 校验失败的字段。
type SchemaError struct {
	Fields []FieldError
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("resume json does not match schema: %d error(s)", len(e.Fields))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// ValidateJSON 在反序列化前按内嵌 Schema 校验请求体。
func ValidateJSON(raw []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("load resume json: %w", err)
	}
	if result.Valid() {
		return nil
	}

	out := &SchemaError{Fields: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		out.Fields = append(out.Fields, FieldError{Field: field, Rule: desc.Description()})
	}
	return out
}
