package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name      string
		value     interface{}
		fieldType ConfigFieldType
		expected  interface{}
		wantErr   bool
	}{
		{name: "nil passes through", value: nil, fieldType: FieldInteger, expected: nil},
		{name: "string kept", value: "hello", fieldType: FieldString, expected: "hello"},
		{name: "number to string", value: 42, fieldType: FieldString, expected: "42"},
		{name: "int kept", value: 7, fieldType: FieldInteger, expected: 7},
		{name: "json float to int", value: float64(7), fieldType: FieldInteger, expected: 7},
		{name: "string to int", value: " 12 ", fieldType: FieldInteger, expected: 12},
		{name: "bad string to int", value: "twelve", fieldType: FieldInteger, wantErr: true},
		{name: "bool to int", value: true, fieldType: FieldInteger, wantErr: true},
		{name: "float kept", value: 0.5, fieldType: FieldNumber, expected: 0.5},
		{name: "int to float", value: 3, fieldType: FieldNumber, expected: 3.0},
		{name: "string to float", value: "0.25", fieldType: FieldNumber, expected: 0.25},
		{name: "bad string to float", value: "half", fieldType: FieldNumber, wantErr: true},
		{name: "bool kept", value: true, fieldType: FieldBoolean, expected: true},
		{name: "one to true", value: 1, fieldType: FieldBoolean, expected: true},
		{name: "zero to false", value: 0, fieldType: FieldBoolean, expected: false},
		{name: "yes to true", value: "Yes", fieldType: FieldBoolean, expected: true},
		{name: "no to false", value: "no", fieldType: FieldBoolean, expected: false},
		{name: "bad string to bool", value: "maybe", fieldType: FieldBoolean, wantErr: true},
		{name: "slice kept", value: []interface{}{"a"}, fieldType: FieldArray, expected: []interface{}{"a"}},
		{name: "json string to array", value: `["a","b"]`, fieldType: FieldArray, expected: []interface{}{"a", "b"}},
		{name: "comma string to array", value: "a, b ,c", fieldType: FieldArray, expected: []interface{}{"a", "b", "c"}},
		{name: "number to array", value: 4, fieldType: FieldArray, wantErr: true},
		{name: "map kept", value: map[string]interface{}{"k": "v"}, fieldType: FieldObject, expected: map[string]interface{}{"k": "v"}},
		{name: "json string to object", value: `{"k":"v"}`, fieldType: FieldObject, expected: map[string]interface{}{"k": "v"}},
		{name: "bad string to object", value: "not json", fieldType: FieldObject, wantErr: true},
		{name: "unknown type passes through", value: "raw", fieldType: ConfigFieldType("custom"), expected: "raw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, tt.fieldType)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
