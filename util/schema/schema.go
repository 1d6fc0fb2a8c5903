// Package schema generates JSON Schema tool input descriptions from Go
// structs.
package schema

import (
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

// goTypeToSchemaType maps Go kinds to JSON Schema types.
func goTypeToSchemaType(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "string"
	}
}

// FromStruct builds an object schema from the exported fields of v.
//
// Property names follow the json tag, falling back to the lower-cased field
// name. Fields are required unless they are pointers or tagged omitempty.
// Supported tags: description, enum (comma separated), format, default,
// min and max.
func FromStruct(v interface{}) map[string]interface{} {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	props := map[string]interface{}{}
	required := []string{}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(jsonTag, ",")
		if name == "" {
			name = strings.ToLower(field.Name)
		}

		fieldType := field.Type
		isPtr := fieldType.Kind() == reflect.Ptr
		if isPtr {
			fieldType = fieldType.Elem()
		}
		if !isPtr && !strings.Contains(opts, "omitempty") {
			required = append(required, name)
		}

		schemaType := goTypeToSchemaType(fieldType.Kind())
		prop := map[string]interface{}{"type": schemaType}
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		if format := field.Tag.Get("format"); format != "" {
			prop["format"] = format
		}
		if enumTag := field.Tag.Get("enum"); enumTag != "" {
			var values []interface{}
			for _, e := range strings.Split(enumTag, ",") {
				values = append(values, strings.TrimSpace(e))
			}
			prop["enum"] = values
		}
		if def, ok := field.Tag.Lookup("default"); ok {
			prop["default"] = convertDefault(def, schemaType)
		}
		if tag := field.Tag.Get("min"); tag != "" {
			if lo, err := cast.ToFloat64E(tag); err == nil {
				prop["minimum"] = lo
			}
		}
		if tag := field.Tag.Get("max"); tag != "" {
			if hi, err := cast.ToFloat64E(tag); err == nil {
				prop["maximum"] = hi
			}
		}
		if schemaType == "array" {
			elem := fieldType.Elem()
			if elem.Kind() == reflect.Ptr {
				elem = elem.Elem()
			}
			prop["items"] = map[string]interface{}{"type": goTypeToSchemaType(elem.Kind())}
		}
		props[name] = prop
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// convertDefault coerces a default tag to the property's type, keeping the
// raw string when it does not convert.
func convertDefault(raw, schemaType string) interface{} {
	switch schemaType {
	case "integer":
		if v, err := cast.ToInt64E(raw); err == nil {
			return v
		}
	case "number":
		if v, err := cast.ToFloat64E(raw); err == nil {
			return v
		}
	case "boolean":
		if v, err := cast.ToBoolE(raw); err == nil {
			return v
		}
	}
	return raw
}
