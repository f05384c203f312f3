// internal/record/prune_test.go
package record

import (
	"reflect"
	"testing"
)

func TestPrune(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]interface{}
		expected map[string]interface{}
	}{
		{
			name:     "removes nil leaves and empty parents, keeps zero and empty string",
			input:    map[string]interface{}{"a": nil, "b": map[string]interface{}{"c": nil}, "d": 0, "e": ""},
			expected: map[string]interface{}{"d": 0, "e": ""},
		},
		{
			name:     "empty map stays empty",
			input:    map[string]interface{}{},
			expected: map[string]interface{}{},
		},
		{
			name: "nested maps pruned recursively",
			input: map[string]interface{}{
				"outer": map[string]interface{}{
					"inner": map[string]interface{}{"gone": nil},
					"kept":  "value",
				},
			},
			expected: map[string]interface{}{
				"outer": map[string]interface{}{"kept": "value"},
			},
		},
		{
			name: "maps inside slices are pruned but slices are kept",
			input: map[string]interface{}{
				"items": []interface{}{
					map[string]interface{}{"id": "a", "missing": nil},
				},
				"empty": []interface{}{},
			},
			expected: map[string]interface{}{
				"items": []interface{}{
					map[string]interface{}{"id": "a"},
				},
				"empty": []interface{}{},
			},
		},
		{
			name:     "false boolean survives",
			input:    map[string]interface{}{"hidden": false, "gone": nil},
			expected: map[string]interface{}{"hidden": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Prune(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Prune() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPruneIdempotent(t *testing.T) {
	build := func() map[string]interface{} {
		return map[string]interface{}{
			"a": nil,
			"b": map[string]interface{}{"c": nil, "d": map[string]interface{}{}},
			"e": 0,
			"f": "",
			"g": map[string]interface{}{"h": "x"},
		}
	}

	once := Prune(build())
	twice := Prune(Prune(build()))

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("pruning twice changed the result: once=%v twice=%v", once, twice)
	}
}
