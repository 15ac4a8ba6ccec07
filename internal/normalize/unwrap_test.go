package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapJSON(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"object string", `{"a":1}`, map[string]any{"a": json.Number("1")}},
		{"array string", ` [1, "x"] `, []any{json.Number("1"), "x"}},
		{"bytes", []byte(`{"b":true}`), map[string]any{"b": true}},
		{"raw message", json.RawMessage(`[]`), []any{}},
		{"plain string", "hello", "hello"},
		{"quoted scalar stays", `"hello"`, `"hello"`},
		{"number string stays", "42", "42"},
		{"broken json", `{"a":`, `{"a":`},
		{"trailing data", `{"a":1} {"b":2}`, `{"a":1} {"b":2}`},
		{"empty", "", ""},
		{"nil", nil, nil},
		{"number", 3.5, 3.5},
		{"already structured", map[string]any{"x": "y"}, map[string]any{"x": "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnwrapJSON(tt.in))
		})
	}
}

func TestDecode(t *testing.T) {
	v, err := Decode(strings.NewReader(`{"n": 12345678901234567890}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": json.Number("12345678901234567890")}, v)

	_, err = Decode(strings.NewReader(`{} []`))
	require.Error(t, err)

	_, err = Decode(strings.NewReader(``))
	require.Error(t, err)
}

func TestToMap(t *testing.T) {
	type rec struct {
		ID   string  `json:"id"`
		Note *string `json:"note"`
	}

	assert.Equal(t, map[string]any{"id": "1", "note": nil}, ToMap(rec{ID: "1"}))
	assert.Nil(t, ToMap([]int{1}))
	assert.Nil(t, ToMap(make(chan int)))
}
