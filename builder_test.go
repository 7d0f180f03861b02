package jsonadapters

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Station-Manager/jsonadapters/config"
	"github.com/Station-Manager/jsonadapters/excluder"
	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/metadata"
	"github.com/Station-Manager/jsonadapters/typeadapter"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

type Band string

type Account struct {
	Call  string `adapter:"expose"`
	Token string
	Grid  string `adapter:"expose,exclude=serialize"`
}

type Profile struct {
	Call    string
	Grid    string `adapter:"since=2.0"`
	Zone    int    `adapter:"until=1.0"`
	Locator string `adapter:"since=1.0,until=2.0"`
}

type upperBand struct{}

func (upperBand) Read(r jsonio.Reader) (any, error) {
	s, err := r.NextString()
	return Band(strings.ToLower(s)), err
}

func (upperBand) Write(w jsonio.Writer, value any) error {
	return w.WriteString(strings.ToUpper(string(value.(Band))))
}

type bandFactory struct {
	calls atomic.Int32
}

func (f *bandFactory) Supports(t *typetoken.TypeToken) bool {
	return t.Type() == reflect.TypeFor[Band]()
}

func (f *bandFactory) Create(*typetoken.TypeToken, *typeadapter.Provider) (typeadapter.TypeAdapter, error) {
	f.calls.Add(1)
	return upperBand{}, nil
}

type skipProperty struct {
	name string
}

func (skipProperty) ShouldSkipClass(*metadata.ClassMetadata) bool { return false }

func (s skipProperty) ShouldSkipProperty(p *metadata.Property) bool { return p.Name() == s.name }

func TestBuilder_ExclusionPrecedence(t *testing.T) {
	in := Account{Call: "A", Token: "t", Grid: "IO91"}
	body := []byte(`{"call":"A","token":"t","grid":"IO91"}`)

	open := newTestEngine(t)
	data, err := open.ToJSON(in)
	require.NoError(t, err)
	assert.Equal(t, `{"call":"A","token":"t"}`, string(data))

	var got Account
	require.NoError(t, open.FromJSON(body, &got))
	assert.Equal(t, in, got)

	exposed := newTestEngine(t, WithRequireExpose(true))
	data, err = exposed.ToJSON(in)
	require.NoError(t, err)
	assert.Equal(t, `{"call":"A"}`, string(data))

	got = Account{}
	require.NoError(t, exposed.FromJSON(body, &got))
	assert.Equal(t, Account{Call: "A", Grid: "IO91"}, got)
}

func TestBuilder_ExclusionStrategies(t *testing.T) {
	e, err := NewBuilder().
		AddExclusionStrategy(skipProperty{name: "Token"}, true, false).
		AddDynamicStrategy(excluder.DynamicStrategyFunc(func(p *metadata.Property, _ any, serialize bool) bool {
			return !serialize && p.Name() == "Call"
		})).
		Build()
	require.NoError(t, err)

	data, err := e.ToJSON(Account{Call: "A", Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, `{"call":"A"}`, string(data))

	var got Account
	require.NoError(t, e.FromJSON([]byte(`{"call":"A","token":"t"}`), &got))
	assert.Equal(t, Account{Token: "t"}, got)
}

func TestBuilder_VersionGating(t *testing.T) {
	in := Profile{Call: "A", Grid: "IO91", Zone: 14, Locator: "JO01"}

	for _, tc := range []struct {
		version string
		want    string
	}{
		{version: "", want: `{"call":"A","grid":"IO91","zone":14,"locator":"JO01"}`},
		{version: "1.5", want: `{"call":"A","locator":"JO01"}`},
		{version: "0.9", want: `{"call":"A","zone":14}`},
		{version: "2.0.0", want: `{"call":"A","grid":"IO91"}`},
	} {
		t.Run(tc.version, func(t *testing.T) {
			e := newTestEngine(t, WithVersion(tc.version))
			data, err := e.ToJSON(in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(data))
		})
	}

	_, err := New(WithVersion("not a version"))
	assert.Error(t, err)
}

func TestBuilder_Visitor(t *testing.T) {
	var seen atomic.Int32
	e, err := NewBuilder().
		AddVisitor(metadata.VisitorFunc(func(class *metadata.ClassMetadata) {
			seen.Add(1)
			if p := class.Properties().GetByName("Token"); p != nil {
				p.SetSkipSerialize(true)
			}
		})).
		Build()
	require.NoError(t, err)

	for range 3 {
		data, err := e.ToJSON(Account{Call: "A", Token: "t"})
		require.NoError(t, err)
		assert.Equal(t, `{"call":"A"}`, string(data))
	}
	assert.Equal(t, int32(1), seen.Load())
}

func TestBuilder_FactoryCaching(t *testing.T) {
	factory := &bandFactory{}
	e, err := NewBuilder().AddTypeAdapterFactory(factory).Build()
	require.NoError(t, err)

	for range 3 {
		data, err := e.ToJSON(map[string]Band{"hf": "20m"})
		require.NoError(t, err)
		assert.Equal(t, `{"hf":"20M"}`, string(data))
	}
	got, err := Unmarshal[[]Band](e, []byte(`["40M","80M"]`))
	require.NoError(t, err)
	assert.Equal(t, []Band{"40m", "80m"}, got)
	assert.Equal(t, int32(1), factory.calls.Load())
}

func TestBuilder_AddTypeAdapter(t *testing.T) {
	e, err := NewBuilder().
		RegisterType("Band", Band("")).
		AddTypeAdapter("Band", upperBand{}).
		Build()
	require.NoError(t, err)

	data, err := e.ToJSON(Band("15m"))
	require.NoError(t, err)
	assert.Equal(t, `"15M"`, string(data))

	_, err = NewBuilder().AddTypeAdapter("array<int", upperBand{}).Build()
	assert.True(t, errors.Is(err, ErrMalformedType))

	_, err = NewBuilder().AddTypeAdapter("Band", nil).Build()
	assert.True(t, errors.Is(err, ErrInvalidAdapterConfiguration))

	_, err = NewBuilder().AddTypeAdapterFactory(nil).Build()
	assert.True(t, errors.Is(err, ErrInvalidAdapterConfiguration))
}

func TestBuilder_CustomDeserializerOverride(t *testing.T) {
	e, err := NewBuilder().
		RegisterType("Grid", Grid{}).
		AddDeserializer("Grid", typeadapter.DeserializerFunc(func(el jsonio.Element, _ *typetoken.TypeToken, ctx *typeadapter.DeserializationContext) (any, error) {
			locator, _ := el.(*jsonio.Object).Get("locator")
			v, err := ctx.Deserialize(locator, typetoken.Of[string]())
			if err != nil {
				return nil, err
			}
			return Grid{Locator: "SENTINEL-" + v.(string)}, nil
		})).
		Build()
	require.NoError(t, err)

	var op Operator
	require.NoError(t, e.FromJSON([]byte(`{"callsign":"A","home":{"locator":"IO91","lat":51.5}}`), &op))
	require.NotNil(t, op.Home)
	assert.Equal(t, Grid{Locator: "SENTINEL-IO91"}, *op.Home)

	data, err := e.ToJSON(Grid{Locator: "JO01", Lat: 2})
	require.NoError(t, err)
	assert.Equal(t, `{"locator":"JO01","lat":2}`, string(data))
}

type ctxKey struct{}

func TestBuilder_SerializerSeesContext(t *testing.T) {
	e, err := NewBuilder().
		RegisterType("Band", Band("")).
		AddSerializer("Band", typeadapter.SerializerFunc(func(value any, _ *typetoken.TypeToken, ctx *typeadapter.SerializationContext) (jsonio.Element, error) {
			prefix, _ := ctx.Context().Value(ctxKey{}).(string)
			return jsonio.NewString(prefix + string(value.(Band))), nil
		})).
		Build()
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), ctxKey{}, "band:")
	data, err := e.ToJSONContext(ctx, []Band{"20m"})
	require.NoError(t, err)
	assert.Equal(t, `["band:20m"]`, string(data))

	// the deserializer direction falls back to the built-in chain
	got, err := Unmarshal[Band](e, []byte(`"40m"`))
	require.NoError(t, err)
	assert.Equal(t, Band("40m"), got)
}

func TestBuilder_InstanceCreator(t *testing.T) {
	e, err := NewBuilder().
		AddInstanceCreator(reflect.TypeFor[Grid](), func() any { return &Grid{Locator: "AA00"} }).
		Build()
	require.NoError(t, err)

	var g Grid
	require.NoError(t, e.FromJSON([]byte(`{"lat":10}`), &g))
	assert.Equal(t, Grid{Locator: "AA00", Lat: 10}, g)
}

func TestBuilder_RegisterNamedAdapter(t *testing.T) {
	type Tagged struct {
		Band Band `adapter:"adapter=upper"`
	}
	e, err := NewBuilder().RegisterNamed("upper", func() any { return upperBand{} }).Build()
	require.NoError(t, err)

	data, err := e.ToJSON(Tagged{Band: "20m"})
	require.NoError(t, err)
	assert.Equal(t, `{"band":"20M"}`, string(data))
}

func TestBuilder_RegisterInterface(t *testing.T) {
	_, err := NewBuilder().RegisterInterface("Stringer", 5).Build()
	assert.Error(t, err)

	_, err = NewBuilder().RegisterInterface("Element", (*jsonio.Element)(nil)).Build()
	assert.NoError(t, err)
}

func TestBuilder_WithConfig(t *testing.T) {
	type Probe struct {
		HomeGrid string
		Note     *string
		Modern   string `adapter:"since=2.0"`
	}
	path := filepath.Join(t.TempDir(), "jsonadapters.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.5\"\nproperty_naming: camel\nserialize_null: true\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	e, err := NewBuilder().WithConfig(cfg).Build()
	require.NoError(t, err)

	data, err := e.ToJSON(Probe{HomeGrid: "IO91", Modern: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"homeGrid":"IO91","note":null}`, string(data))
	assert.True(t, e.Options().SerializeNull)

	_, err = NewBuilder().WithConfig(&config.Config{PropertyNaming: "kebab"}).Build()
	assert.Error(t, err)
}
