// internal/normalize/payload.go
package normalize

// Accessors for the undocumented API payloads. The payload shape is not
// guaranteed: fields move between API versions, so every read goes through
// a try-path-A-then-path-B resolver instead of direct indexing.

// getMap returns m[key] when it is an object.
func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// getSlice returns m[key] when it is an array.
func getSlice(m map[string]interface{}, key string) []interface{} {
	if m == nil {
		return nil
	}
	if v, ok := m[key].([]interface{}); ok {
		return v
	}
	return nil
}

// getString returns the first key that holds a non-empty string.
func getString(m map[string]interface{}, keys ...string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// getNumber returns the first key that holds a numeric value. JSON numbers
// decode as float64, but some fields arrive stringified in older payloads.
func getNumber(m map[string]interface{}, keys ...string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
	}
	return 0, false
}

// isTruthy reports whether a payload value should be treated as set. Used
// for the word-level "hidden" flag, which has appeared as a bool and as a
// 0/1 number across API versions.
func isTruthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "" && t != "false" && t != "0"
	default:
		return false
	}
}

// resolveStory locates the story object inside a document payload. Newer
// payloads nest it under "story"; older ones return it at the top level.
func resolveStory(doc map[string]interface{}) map[string]interface{} {
	if doc == nil {
		return nil
	}
	if story := getMap(doc, "story"); story != nil {
		return story
	}
	if data := getMap(doc, "data"); data != nil {
		if story := getMap(data, "story"); story != nil {
			return story
		}
	}
	return doc
}

// resolveWords locates the word-level transcript array. The flat top-level
// "words" field is tried first, then the nested transcriptions tuple shape
// (transcriptions[1][0].words). Absence of both means "no transcript", not
// an error.
func resolveWords(trans map[string]interface{}) []interface{} {
	if trans == nil {
		return nil
	}
	if words := getSlice(trans, "words"); words != nil {
		return words
	}

	transcriptions := getSlice(trans, "transcriptions")
	if len(transcriptions) < 2 {
		return nil
	}
	segments, ok := transcriptions[1].([]interface{})
	if !ok || len(segments) == 0 {
		return nil
	}
	segment, ok := segments[0].(map[string]interface{})
	if !ok {
		return nil
	}
	return getSlice(segment, "words")
}
