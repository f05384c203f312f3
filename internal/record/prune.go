// internal/record/prune.go
package record

// Prune walks a nested map depth-first and removes keys whose value is nil,
// then removes keys whose nested map became empty as a result. Empty strings,
// zero numbers, and empty slices are preserved: absence means "unknown",
// zero means "known to be zero". The input map is modified in place and
// returned for convenience. Prune is idempotent.
func Prune(m map[string]interface{}) map[string]interface{} {
	for key, value := range m {
		switch v := value.(type) {
		case nil:
			delete(m, key)
		case map[string]interface{}:
			Prune(v)
			if len(v) == 0 {
				delete(m, key)
			}
		case []interface{}:
			for i, item := range v {
				if nested, ok := item.(map[string]interface{}); ok {
					v[i] = Prune(nested)
				}
			}
		}
	}
	return m
}
