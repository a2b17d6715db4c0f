package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Decoder turns a non-empty success body into the caller's value.
type Decoder func(body []byte) error

// requiredKeyer is implemented by model types that declare the keys the
// backend must always send.
type requiredKeyer interface {
	RequiredKeys() []string
}

// Into decodes a single JSON object into out.
func Into[T any](out *T) Decoder {
	return func(body []byte) error {
		return decodeObject(body, out, "")
	}
}

// IntoList decodes a JSON array of objects into out.
func IntoList[T any](out *[]T) Decoder {
	return func(body []byte) error {
		var raws []json.RawMessage
		if err := json.Unmarshal(body, &raws); err != nil {
			return decodeFailure(err, "")
		}
		items := make([]T, 0, len(raws))
		for i, raw := range raws {
			var item T
			if err := decodeObject(raw, &item, fmt.Sprintf("[%d]", i)); err != nil {
				return err
			}
			items = append(items, item)
		}
		*out = items
		return nil
	}
}

func decodeObject[T any](data []byte, out *T, path string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return decodeFailure(err, path)
	}
	if fields == nil {
		return &DecodingError{Path: path, Failure: ValueNotFound, Detail: "expected object, got null"}
	}
	if rk, ok := any(*out).(requiredKeyer); ok {
		for _, key := range rk.RequiredKeys() {
			raw, present := fields[key]
			if !present {
				return &DecodingError{Path: joinPath(path, key), Failure: KeyNotFound, Detail: fmt.Sprintf("missing required key %q", key)}
			}
			if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
				return &DecodingError{Path: joinPath(path, key), Failure: ValueNotFound, Detail: fmt.Sprintf("required key %q is null", key)}
			}
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return decodeFailure(err, path)
	}
	return nil
}

func decodeFailure(err error, path string) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		return &DecodingError{
			Path:    joinPath(path, typeErr.Field),
			Failure: TypeMismatch,
			Detail:  fmt.Sprintf("expected %s, got JSON %s", typeErr.Type, typeErr.Value),
		}
	case errors.As(err, &syntaxErr):
		return &DecodingError{
			Path:    path,
			Failure: DataCorrupted,
			Detail:  fmt.Sprintf("invalid JSON at offset %d: %v", syntaxErr.Offset, syntaxErr),
		}
	default:
		return &DecodingError{Path: path, Failure: DataCorrupted, Detail: err.Error()}
	}
}

func joinPath(prefix, key string) string {
	switch {
	case key == "":
		return prefix
	case prefix == "":
		return key
	case key[0] == '[':
		return prefix + key
	default:
		return prefix + "." + key
	}
}
