package typetoken

import (
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
)

// Option keys understood by the built-in adapters.
const (
	OptionFormat   = "format"
	OptionTimezone = "timezone"
	OptionLength   = "length"
)

// TypeToken describes a type the engine can serialize: its kind, its name,
// the Go type it is bound to (nil when the name is unknown), its generic
// parameters and an option bag. A TypeToken never changes after creation.
type TypeToken struct {
	kind       Kind
	name       string
	rtype      reflect.Type
	generics   []*TypeToken
	options    map[string]any
	interfaces map[string]struct{}
	ancestors  map[string]struct{}
	text       string
	key        string
}

func newToken(kind Kind, name string, rtype reflect.Type, generics []*TypeToken, info *typeInfo) *TypeToken {
	t := &TypeToken{
		kind:     kind,
		name:     name,
		rtype:    rtype,
		generics: generics,
	}
	if info != nil {
		t.interfaces = info.interfaces
		t.ancestors = info.ancestors
	}
	t.text = renderText(name, generics)
	t.key = t.text
	return t
}

func renderText(name string, generics []*TypeToken) string {
	if len(generics) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('<')
	for i, g := range generics {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(g.text)
	}
	b.WriteByte('>')
	return b.String()
}

// Kind returns the token classification.
func (t *TypeToken) Kind() Kind { return t.kind }

// Name returns the raw name: a keyword such as "int" or "array", or a class name.
func (t *TypeToken) Name() string { return t.name }

// Type returns the bound Go type, or nil when the name did not resolve.
func (t *TypeToken) Type() reflect.Type { return t.rtype }

// Bound reports whether the token resolved to a Go type.
func (t *TypeToken) Bound() bool { return t.rtype != nil }

// Generics returns a copy of the ordered generic parameters.
func (t *TypeToken) Generics() []*TypeToken { return slices.Clone(t.generics) }

// Generic returns the generic parameter at i, or nil.
func (t *TypeToken) Generic(i int) *TypeToken {
	if i < 0 || i >= len(t.generics) {
		return nil
	}
	return t.generics[i]
}

// Options returns a copy of the option bag.
func (t *TypeToken) Options() map[string]any { return maps.Clone(t.options) }

// Option returns a single option.
func (t *TypeToken) Option(name string) (any, bool) {
	v, ok := t.options[name]
	return v, ok
}

// StringOption returns an option as a string, or "" when absent or not a string.
func (t *TypeToken) StringOption(name string) string {
	s, _ := t.options[name].(string)
	return s
}

// String returns the canonical descriptor text.
func (t *TypeToken) String() string { return t.text }

// Key identifies the token in adapter caches. Tokens with equal keys are
// interchangeable.
func (t *TypeToken) Key() string { return t.key }

// Equal compares two tokens by key.
func (t *TypeToken) Equal(other *TypeToken) bool {
	return other != nil && t.key == other.key
}

// IsObject reports whether the token names a class.
func (t *TypeToken) IsObject() bool { return t.kind == Object }

// IsStruct reports whether the token is a class bound to a Go struct.
func (t *TypeToken) IsStruct() bool {
	return t.kind == Object && t.rtype != nil && t.rtype.Kind() == reflect.Struct
}

// Interfaces returns the sorted names of the registered interfaces the type implements.
func (t *TypeToken) Interfaces() []string {
	return slices.Sorted(maps.Keys(t.interfaces))
}

// IsA reports whether the token has the given name, implements an interface
// registered under it, or embeds a struct with that name.
func (t *TypeToken) IsA(name string) bool {
	if t.name == name {
		return true
	}
	if _, ok := t.interfaces[name]; ok {
		return true
	}
	_, ok := t.ancestors[name]
	return ok
}

// WithOptions returns a copy of the token with the given options merged over
// its own. The key of the copy includes a hash of the merged options.
func (t *TypeToken) WithOptions(options map[string]any) *TypeToken {
	if len(options) == 0 {
		return t
	}
	c := *t
	c.options = maps.Clone(t.options)
	if c.options == nil {
		c.options = make(map[string]any, len(options))
	}
	maps.Copy(c.options, options)
	c.key = optionKey(c.text, c.options)
	return &c
}

// optionKey relies on map keys being sorted by the encoder.
func optionKey(text string, options map[string]any) string {
	if len(options) == 0 {
		return text
	}
	data, err := json.Marshal(options)
	if err != nil {
		data = []byte(strconv.Itoa(len(options)))
	}
	return text + "|" + strconv.FormatUint(xxhash.Sum64(data), 16)
}
