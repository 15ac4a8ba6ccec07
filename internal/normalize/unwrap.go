package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// UnwrapJSON parses v when it is a string or byte slice holding a JSON
// object or array. Any other value, and any input that fails to parse, is
// returned unchanged.
//
// Numbers inside the parsed document are kept as json.Number.
func UnwrapJSON(v any) any {
	var data []byte
	switch t := v.(type) {
	case string:
		data = []byte(t)
	case []byte:
		data = t
	case json.RawMessage:
		data = t
	default:
		return v
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return v
	}

	parsed, err := decode(trimmed)
	if err != nil {
		return v
	}
	return parsed
}

// Decode parses a JSON document the same way UnwrapJSON does, but reports
// errors. Used for whole response bodies.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON document")
	}
	return out, nil
}

func decode(data []byte) (any, error) {
	return Decode(bytes.NewReader(data))
}

// ToMap converts a struct (or any JSON-encodable value) into the generic
// map form produced by decoding a payload. It returns nil when v does not
// encode to a JSON object.
func ToMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	m, _ := UnwrapJSON(data).(map[string]any)
	return m
}
