package validation

import (
	"reflect"
	"strings"

	"decom/internal/model"
)

// FieldRule describes one validated field so clients can mirror server rules.
type FieldRule struct {
	Field string   `json:"field"`
	Type  string   `json:"type"`
	Rules []string `json:"rules"`
}

var schemas = map[string]any{
	"login":          model.LoginRequest{},
	"create_request": model.CreateRequestPayload{},
	"update_request": model.UpdateRequestPayload{},
	"archive":        model.ArchiveRequestPayload{},
	"committee":      model.CommitteePayload{},
	"create_user":    model.CreateUserPayload{},
	"update_user":    model.UpdateUserPayload{},
}

// Schema returns the rules of the named payload.
func Schema(name string) ([]FieldRule, bool) {
	obj, ok := schemas[name]
	if !ok {
		return nil, false
	}
	return Describe(obj), true
}

func SchemaNames() []string {
	names := make([]string, 0, len(schemas))
	for n := range schemas {
		names = append(names, n)
	}
	return names
}

func Describe(obj any) []FieldRule {
	t := reflect.TypeOf(obj)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	rules := make([]FieldRule, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := fieldName(f)
		if name == "" {
			continue
		}
		typ := f.Type
		if typ.Kind() == reflect.Pointer {
			typ = typ.Elem()
		}
		var tags []string
		if b := f.Tag.Get("binding"); b != "" {
			tags = strings.Split(b, ",")
		}
		rules = append(rules, FieldRule{Field: name, Type: typ.Kind().String(), Rules: tags})
	}
	return rules
}
