package dbext

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// ParamType is the declared SQL type of a bind value.
type ParamType int

const (
	// TypeDefault binds the value as given.
	TypeDefault ParamType = iota
	TypeNull
	TypeInteger
	TypeString
	TypeBool
	TypeBinary
	TypeFloat
	// TypeIntegerArray and TypeStringArray bind a slice. Its ? expands to one placeholder per
	// element, or to NULL when the slice is empty.
	TypeIntegerArray
	TypeStringArray
)

// ColumnTypes declares the type of Insert and Update values by column name.
type ColumnTypes map[string]ParamType

func (t ParamType) String() string {
	switch t {
	case TypeDefault:
		return "default"
	case TypeNull:
		return "null"
	case TypeInteger:
		return "integer"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeBinary:
		return "binary"
	case TypeFloat:
		return "float"
	case TypeIntegerArray:
		return "integer[]"
	case TypeStringArray:
		return "string[]"
	default:
		return "ParamType(" + strconv.Itoa(int(t)) + ")"
	}
}

func (t ParamType) isArray() bool {
	return t == TypeIntegerArray || t == TypeStringArray
}

func (t ParamType) elem() ParamType {
	switch t {
	case TypeIntegerArray:
		return TypeInteger
	case TypeStringArray:
		return TypeString
	default:
		return t
	}
}

func typeAt(types []ParamType, i int) ParamType {
	if i < len(types) {
		return types[i]
	}

	return TypeDefault
}

// convert coerces a scalar to typ. nil stays nil for every type.
func convert(v any, typ ParamType) (any, error) {
	if v == nil || typ == TypeDefault {
		return v, nil
	}

	rv := reflect.ValueOf(v)

	switch typ {
	case TypeNull:
		return nil, nil
	case TypeInteger:
		return toInt(v, rv)
	case TypeFloat:
		return toFloat(v, rv)
	case TypeBool:
		return toBool(v, rv)
	case TypeString:
		return toString(v, rv)
	case TypeBinary:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		}
	case TypeIntegerArray, TypeStringArray:
		return nil, fmt.Errorf("%w: %s cannot be used for a single value", ErrTypeMismatch, typ)
	}

	return nil, mismatch(v, typ)
}

// expand converts a slice bound with an array type into its elements.
func expand(v any, typ ParamType) ([]any, error) {
	if v == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, mismatch(v, typ)
	}

	out := make([]any, 0, rv.Len())

	for i := 0; i < rv.Len(); i++ {
		e, err := convert(rv.Index(i).Interface(), typ.elem())
		if err != nil {
			return nil, err
		}

		out = append(out, e)
	}

	return out, nil
}

func mismatch(v any, typ ParamType) error {
	return fmt.Errorf("%w: %T as %s", ErrTypeMismatch, v, typ)
}

//nolint:exhaustive // remaining kinds are mismatches
func toInt(v any, rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return nil, mismatch(v, TypeInteger)
		}

		return int64(rv.Uint()), nil
	case reflect.Bool:
		if rv.Bool() {
			return int64(1), nil
		}

		return int64(0), nil
	case reflect.String:
		n, err := strconv.ParseInt(rv.String(), 10, 64)
		if err != nil {
			return nil, mismatch(v, TypeInteger)
		}

		return n, nil
	default:
		return nil, mismatch(v, TypeInteger)
	}
}

//nolint:exhaustive // remaining kinds are mismatches
func toFloat(v any, rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.String:
		f, err := strconv.ParseFloat(rv.String(), 64)
		if err != nil {
			return nil, mismatch(v, TypeFloat)
		}

		return f, nil
	default:
		return nil, mismatch(v, TypeFloat)
	}
}

//nolint:exhaustive // remaining kinds are mismatches
func toBool(v any, rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0, nil
	case reflect.String:
		b, err := strconv.ParseBool(rv.String())
		if err != nil {
			return nil, mismatch(v, TypeBool)
		}

		return b, nil
	default:
		return nil, mismatch(v, TypeBool)
	}
}

//nolint:exhaustive // remaining kinds are mismatches
func toString(v any, rv reflect.Value) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case fmt.Stringer:
		return s.String(), nil
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	default:
		return nil, mismatch(v, TypeString)
	}
}

// flatten turns the variadic params of the fetchers into a bind list: a single slice or array
// argument other than []byte is spread, anything else is used as is.
func flatten(params []any) []any {
	if len(params) != 1 {
		return params
	}

	switch p := params[0].(type) {
	case []any:
		return p
	case []byte, nil:
		return params
	}

	rv := reflect.ValueOf(params[0])
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return params
	}

	// named byte slices such as json.RawMessage bind as one value
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return params
	}

	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}

	return list
}
