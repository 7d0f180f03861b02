package metadata

import (
	"strings"
	"unicode"

	"github.com/Station-Manager/errors"
	"github.com/samber/lo"
)

// PropertyNamingStrategy turns a Go field name into a serialized name.
type PropertyNamingStrategy interface {
	TranslateName(name string) string
}

// PropertyNamingFunc adapts a function to PropertyNamingStrategy.
type PropertyNamingFunc func(name string) string

func (f PropertyNamingFunc) TranslateName(name string) string { return f(name) }

var (
	// SnakeCase maps "UserID" to "user_id" and "HTTPServer" to "http_server".
	SnakeCase PropertyNamingStrategy = PropertyNamingFunc(toSnake)
	// CamelCase maps "UserID" to "userID" and "HTTPServer" to "httpServer".
	CamelCase PropertyNamingStrategy = PropertyNamingFunc(toCamel)
	// Identity keeps Go field names.
	Identity PropertyNamingStrategy = PropertyNamingFunc(func(name string) string { return name })
)

// NamingStrategyByName resolves "snake", "camel" or "identity".
func NamingStrategyByName(name string) (PropertyNamingStrategy, error) {
	const op errors.Op = "metadata.NamingStrategyByName"
	switch strings.ToLower(name) {
	case "", "snake", "snake_case":
		return SnakeCase, nil
	case "camel", "camelcase":
		return CamelCase, nil
	case "identity", "none":
		return Identity, nil
	}
	return nil, errors.New(op).Errorf("unknown property naming strategy %q", name)
}

func toSnake(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func toCamel(name string) string {
	runes := []rune(name)
	for i := range runes {
		if !unicode.IsUpper(runes[i]) {
			break
		}
		// keep the last capital of an acronym that starts a new word
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// MethodNamingStrategy proposes accessor method names for a property.
type MethodNamingStrategy interface {
	GetterNames(property string) []string
	SetterNames(property string) []string
}

// UpperCaseMethods proposes GetName, IsName and Name as getters and SetName
// as the setter of a property called name or Name.
type UpperCaseMethods struct{}

func (UpperCaseMethods) GetterNames(property string) []string {
	n := upperFirst(property)
	return lo.Uniq([]string{"Get" + n, "Is" + n, n})
}

func (UpperCaseMethods) SetterNames(property string) []string {
	return []string{"Set" + upperFirst(property)}
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
