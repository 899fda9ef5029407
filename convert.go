package fields

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"
)

func lowerOf(text string) string {
	return strings.ToLower(text)
}

// sequenceLength measures sequence-typed values: rune count for strings,
// element count for byte slices, slices, arrays, and maps.
func sequenceLength(value any) (int64, error) {
	switch typed := value.(type) {
	case string:
		return int64(utf8.RuneCountInString(typed)), nil
	case []byte:
		return int64(len(typed)), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return int64(rv.Len()), nil
	default:
		return 0, fmt.Errorf("value of type %T has no length", value)
	}
}

// normalizeLoose canonicalizes values arriving from loosely typed decoders
// and evaluators: every integer becomes int64, float32 widens to float64,
// nested containers are normalized recursively. Values already canonical are
// returned untouched.
func normalizeLoose(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case int:
		return int64(typed)
	case int8:
		return int64(typed)
	case int16:
		return int64(typed)
	case int32:
		return int64(typed)
	case int64:
		return typed
	case uint:
		return normalizeUint(uint64(typed))
	case uint8:
		return int64(typed)
	case uint16:
		return int64(typed)
	case uint32:
		return int64(typed)
	case uint64:
		return normalizeUint(typed)
	case float32:
		return float64(typed)
	case []any:
		out := make([]any, len(typed))
		for i, element := range typed {
			out[i] = normalizeLoose(element)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, element := range typed {
			out[key] = normalizeLoose(element)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, element := range typed {
			name, ok := key.(string)
			if !ok {
				name = fmt.Sprintf("%v", key)
			}
			out[name] = normalizeLoose(element)
		}
		return out
	default:
		return value
	}
}

func normalizeUint(value uint64) any {
	if value <= math.MaxInt64 {
		return int64(value)
	}
	return value
}

// toInt64 reports value as an int64 when it is any integer type that fits.
func toInt64(value any) (int64, bool) {
	switch typed := value.(type) {
	case int:
		return int64(typed), true
	case int8:
		return int64(typed), true
	case int16:
		return int64(typed), true
	case int32:
		return int64(typed), true
	case int64:
		return typed, true
	case uint:
		if uint64(typed) > math.MaxInt64 {
			return 0, false
		}
		return int64(typed), true
	case uint8:
		return int64(typed), true
	case uint16:
		return int64(typed), true
	case uint32:
		return int64(typed), true
	case uint64:
		if typed > math.MaxInt64 {
			return 0, false
		}
		return int64(typed), true
	default:
		return 0, false
	}
}

// toFloat64 reports value as a float64 when it is any numeric type.
func toFloat64(value any) (float64, bool) {
	switch typed := value.(type) {
	case float32:
		return float64(typed), true
	case float64:
		return typed, true
	default:
		if n, ok := toInt64(value); ok {
			return float64(n), true
		}
		return 0, false
	}
}
