package typetoken

import (
	"reflect"
	"strings"

	"github.com/hyp3rd/ewrap"

	"github.com/Station-Manager/jsonadapters/internal/sentinel"
)

// keywords maps every accepted spelling to its canonical keyword.
var keywords = map[string]string{
	"string":      "string",
	"int":         "int",
	"integer":     "int",
	"int8":        "int8",
	"int16":       "int16",
	"int32":       "int32",
	"rune":        "int32",
	"int64":       "int64",
	"uint":        "uint",
	"uint8":       "uint8",
	"byte":        "uint8",
	"uint16":      "uint16",
	"uint32":      "uint32",
	"uint64":      "uint64",
	"uintptr":     "uintptr",
	"float":       "float64",
	"double":      "float64",
	"float32":     "float32",
	"float64":     "float64",
	"bool":        "bool",
	"boolean":     "bool",
	"array":       "array",
	"list":        "array",
	"slice":       "array",
	"map":         "map",
	"hash":        "map",
	"object":      "object",
	"null":        "null",
	"resource":    "resource",
	"?":           "?",
	"any":         "?",
	"mixed":       "?",
	"interface{}": "?",
	"ptr":         "ptr",
}

var scalarTypes = map[string]reflect.Type{
	"string":  reflect.TypeFor[string](),
	"int":     reflect.TypeFor[int](),
	"int8":    reflect.TypeFor[int8](),
	"int16":   reflect.TypeFor[int16](),
	"int32":   reflect.TypeFor[int32](),
	"int64":   reflect.TypeFor[int64](),
	"uint":    reflect.TypeFor[uint](),
	"uint8":   reflect.TypeFor[uint8](),
	"uint16":  reflect.TypeFor[uint16](),
	"uint32":  reflect.TypeFor[uint32](),
	"uint64":  reflect.TypeFor[uint64](),
	"uintptr": reflect.TypeFor[uintptr](),
	"float32": reflect.TypeFor[float32](),
	"float64": reflect.TypeFor[float64](),
	"bool":    reflect.TypeFor[bool](),
}

// Parse reads a type descriptor such as "map<string,list<int>>" using only
// the keyword table and the builtin interfaces.
func Parse(text string) (*TypeToken, error) {
	return builtin.Parse(text)
}

// MustParse is like Parse but panics on error.
func MustParse(text string) *TypeToken {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse reads a type descriptor. Generic parameters sit between the first
// '<' and the last '>' and are split on commas outside nested brackets.
// Names that are not keywords resolve through the registry; an unknown name
// yields an unbound class token.
func (r *Registry) Parse(text string) (*TypeToken, error) {
	s := strings.Join(strings.Fields(text), "")
	if s == "" {
		return nil, ewrap.Wrapf(sentinel.ErrMalformedType, "empty descriptor")
	}
	open := strings.IndexByte(s, '<')
	closing := strings.LastIndexByte(s, '>')
	if open < 0 {
		if closing >= 0 {
			return nil, ewrap.Wrapf(sentinel.ErrMalformedType, "%q: '>' without '<'", text)
		}
		return r.compose(text, s, nil)
	}
	if closing < open || closing != len(s)-1 {
		return nil, ewrap.Wrapf(sentinel.ErrMalformedType, "%q: unbalanced generic brackets", text)
	}
	parts, err := splitGenerics(text, s[open+1:closing])
	if err != nil {
		return nil, err
	}
	generics := make([]*TypeToken, 0, len(parts))
	for _, part := range parts {
		g, err := r.Parse(part)
		if err != nil {
			return nil, err
		}
		generics = append(generics, g)
	}
	return r.compose(text, s[:open], generics)
}

func splitGenerics(text, inner string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, ewrap.Wrapf(sentinel.ErrMalformedType, "%q: unbalanced generic brackets", text)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, inner[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, ewrap.Wrapf(sentinel.ErrMalformedType, "%q: unbalanced generic brackets", text)
	}
	parts = append(parts, inner[start:])
	for _, p := range parts {
		if p == "" {
			return nil, ewrap.Wrapf(sentinel.ErrMalformedType, "%q: empty generic parameter", text)
		}
	}
	return parts, nil
}

func (r *Registry) compose(text, base string, generics []*TypeToken) (*TypeToken, error) {
	if base == "" || strings.ContainsAny(base, "<>,") {
		return nil, ewrap.Wrapf(sentinel.ErrMalformedType, "%q: invalid type name %q", text, base)
	}
	keyword, ok := keywords[base]
	if !ok {
		return r.named(base, generics), nil
	}
	arity := func(limit int) error {
		if len(generics) > limit {
			return ewrap.Wrapf(sentinel.ErrMalformedType, "%q: %s takes at most %d generic parameters", text, keyword, limit)
		}
		return nil
	}

	if st, ok := scalarTypes[keyword]; ok {
		if err := arity(0); err != nil {
			return nil, err
		}
		return r.FromType(st), nil
	}

	switch keyword {
	case "array":
		if err := arity(1); err != nil {
			return nil, err
		}
		if len(generics) == 0 {
			return r.FromType(sliceType), nil
		}
		var rt reflect.Type
		if e := generics[0].rtype; e != nil {
			rt = reflect.SliceOf(e)
		}
		return newToken(Array, "array", rt, generics, r.infoOrNil(rt)), nil
	case "map", "object":
		if err := arity(2); err != nil {
			return nil, err
		}
		switch len(generics) {
		case 0:
			return r.FromType(mapType), nil
		case 1:
			generics = []*TypeToken{r.FromType(scalarTypes["string"]), generics[0]}
		}
		var rt reflect.Type
		k, v := generics[0].rtype, generics[1].rtype
		if k != nil && v != nil && k.Comparable() {
			rt = reflect.MapOf(k, v)
		}
		return newToken(Map, "map", rt, generics, r.infoOrNil(rt)), nil
	case "ptr":
		if len(generics) != 1 {
			return nil, ewrap.Wrapf(sentinel.ErrMalformedType, "%q: ptr takes exactly one generic parameter", text)
		}
		var rt reflect.Type
		if e := generics[0].rtype; e != nil {
			rt = reflect.PointerTo(e)
		}
		return newToken(Pointer, "ptr", rt, generics, r.infoOrNil(rt)), nil
	case "?":
		if err := arity(0); err != nil {
			return nil, err
		}
		return r.FromType(anyType), nil
	case "null":
		if err := arity(0); err != nil {
			return nil, err
		}
		return nullToken, nil
	default:
		if err := arity(0); err != nil {
			return nil, err
		}
		return newToken(Resource, "resource", nil, nil, nil), nil
	}
}

// named resolves a class name. Generic parameters on a registered name are
// kept on the token but do not change the bound Go type.
func (r *Registry) named(name string, generics []*TypeToken) *TypeToken {
	rt, ok := r.Lookup(name)
	if !ok {
		return newToken(Object, name, nil, generics, nil)
	}
	tok := r.FromType(rt)
	if len(generics) == 0 {
		return tok
	}
	c := *tok
	c.generics = generics
	c.text = renderText(c.name, generics)
	c.key = optionKey(c.text, c.options)
	return &c
}

func (r *Registry) infoOrNil(t reflect.Type) *typeInfo {
	if t == nil {
		return nil
	}
	return r.info(t)
}
