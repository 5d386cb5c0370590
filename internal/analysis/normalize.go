package analysis

import (
	"fmt"
	"math"
	"reflect"
)

// Normalize maps v onto the values encoding/json produces when decoding
// into an interface: nil, bool, float64, string, []any and map[string]any.
//
// Every integer and float kind becomes float64. NaN and ±Inf become nil, as
// does an undefined NullFloat. Pointers are followed. Maps with non-string
// keys use the fmt form of the key. Any other value becomes its fmt string.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case NullFloat:
		if !x.Valid {
			return nil
		}
		return normFloat(x.Float64)
	case float64:
		return normFloat(x)
	case float32:
		return normFloat(float64(x))
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case string:
		return x
	case bool:
		return x
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = Normalize(iter.Value().Interface())
		}
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	}
	return fmt.Sprint(v)
}

func normFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
