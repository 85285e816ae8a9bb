package di

import (
	"reflect"
	"strconv"

	"github.com/kestrelgraph/injector/internal/errs"
)

// TypeConverter is a pair (type-matcher, conversion function) used to turn
// a string constant into a typed value during JIT resolution (spec.md
// §4.4.6).
type TypeConverter struct {
	Matches func(t reflect.Type) bool
	Convert func(value string, t reflect.Type) (any, error)
}

// converterRegistry holds the built-in and user-registered converters
// (spec.md §4.4.6 "User-added converters extend the registry").
type converterRegistry struct {
	converters []TypeConverter
	classes    map[string]reflect.Type // Go analogue of Class<?> lookup by name
}

func newConverterRegistry() *converterRegistry {
	r := &converterRegistry{classes: make(map[string]reflect.Type)}
	r.converters = append(r.converters, builtinConverters()...)
	return r
}

func (r *converterRegistry) register(c TypeConverter) {
	r.converters = append(r.converters, c)
}

func (r *converterRegistry) registerClass(name string, t reflect.Type) {
	r.classes[name] = t
}

// convert finds every converter matching t, requiring exactly one match
// (spec.md §4.4.6 "Ambiguous converter -> error").
func (r *converterRegistry) convert(value string, t reflect.Type) (any, error) {
	var matched []TypeConverter
	for _, c := range r.converters {
		if c.Matches(t) {
			matched = append(matched, c)
		}
	}

	switch len(matched) {
	case 0:
		return nil, nil // no converter; caller treats as "not convertible"
	case 1:
		out, err := matched[0].Convert(value, t)
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, errs.Wrapf(errs.ErrConverterReturnedNil, "converting %q to %s", value, t)
		}
		if reflect.TypeOf(out) != t && !reflect.TypeOf(out).ConvertibleTo(t) {
			return nil, errs.Wrapf(errs.ErrConverterWrongType, "converting %q to %s, got %T", value, t, out)
		}
		if reflect.TypeOf(out) != t {
			out = reflect.ValueOf(out).Convert(t).Interface()
		}
		return out, nil
	default:
		return nil, errs.Wrapf(errs.ErrAmbiguousConversion, "converting %q to %s", value, t)
	}
}

func builtinConverters() []TypeConverter {
	numericKinds := func(k reflect.Kind) bool {
		switch k {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			// Int32 is excluded: it is also Go's rune type and is handled
			// by the character converter below so the two don't collide.
			return true
		}
		return false
	}

	return []TypeConverter{
		{
			Matches: func(t reflect.Type) bool { return numericKinds(t.Kind()) },
			Convert: func(value string, t reflect.Type) (any, error) {
				switch {
				case t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64:
					f, err := strconv.ParseFloat(value, 64)
					if err != nil {
						return nil, errs.Wrapf(err, "converting %q to %s", value, t)
					}
					return reflect.ValueOf(f).Convert(t).Interface(), nil
				default:
					n, err := strconv.ParseInt(value, 10, 64)
					if err != nil {
						return nil, errs.Wrapf(err, "converting %q to %s", value, t)
					}
					return reflect.ValueOf(n).Convert(t).Interface(), nil
				}
			},
		},
		{
			Matches: func(t reflect.Type) bool { return t.Kind() == reflect.Bool },
			Convert: func(value string, t reflect.Type) (any, error) {
				b, err := strconv.ParseBool(value)
				if err != nil {
					return nil, errs.Wrapf(err, "converting %q to %s", value, t)
				}
				return b, nil
			},
		},
		{
			// Go analogue of Character: a string of length 1 converts to
			// an int32/rune (spec.md §4.4.6 "character (string of length 1)").
			Matches: func(t reflect.Type) bool { return t.Kind() == reflect.Int32 },
			Convert: func(value string, t reflect.Type) (any, error) {
				runes := []rune(value)
				if len(runes) != 1 {
					return nil, errs.Errorf("converting %q to %s: not a single character", value, t)
				}
				return runes[0], nil
			},
		},
		{
			Matches: func(t reflect.Type) bool { return t.Kind() == reflect.String },
			Convert: func(value string, _ reflect.Type) (any, error) {
				return value, nil
			},
		},
	}
}
