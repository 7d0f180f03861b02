package typeadapter

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/aarondl/null/v8"
	"github.com/aarondl/sqlboiler/v4/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Station-Manager/jsonadapters/constructor"
	"github.com/Station-Manager/jsonadapters/excluder"
	"github.com/Station-Manager/jsonadapters/internal/sentinel"
	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/metadata"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

type Location struct {
	Grid string
	Lat  float64
}

type Station struct {
	Callsign string
	Power    int
	Bands    []string
	Counts   map[string]int
	Home     *Location
	Active   bool
	Seen     time.Time `adapter:"format=2006-01-02"`
	Notes    null.String
	ID       uuid.UUID
	Extra    types.JSON
}

type Contact struct {
	Call  string
	Note  *string
	Extra null.Int
}

type Node struct {
	Value    int
	Next     *Node
	Children []Node
}

type Band string

type Tagged struct {
	Name  string `adapter:"adapter=upper"`
	Other string
}

type Secret struct {
	_     struct{} `adapter:"adapter=redact"`
	Value string
}

type Broken struct {
	Name string `adapter:"adapter=bogus"`
}

type Hidden struct {
	_    struct{} `adapter:"exclude=serialize"`
	Code string
}

type Wrapper struct {
	Name   string
	Hidden Hidden
}

type Guarded struct {
	Public  string
	Private string
}

func (g *Guarded) ShouldExclude(property string, serialize bool) bool {
	return serialize && property == "Private"
}

type upperAdapter struct{}

func (upperAdapter) Read(r jsonio.Reader) (any, error) {
	s, err := r.NextString()
	return strings.ToLower(s), err
}

func (upperAdapter) Write(w jsonio.Writer, value any) error {
	return w.WriteString(strings.ToUpper(value.(string)))
}

type countingFactory struct {
	calls atomic.Int32
	delay time.Duration
}

func (f *countingFactory) Supports(t *typetoken.TypeToken) bool {
	return t.Type() == reflect.TypeFor[Band]()
}

func (f *countingFactory) Create(*typetoken.TypeToken, *Provider) (TypeAdapter, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	return upperAdapter{}, nil
}

func newTestProvider(t *testing.T, c *constructor.Constructor, user ...Factory) *Provider {
	t.Helper()
	registry := typetoken.NewRegistry()
	registry.Register("Location", Location{})
	ex, err := excluder.New()
	require.NoError(t, err)
	meta := metadata.NewFactory(registry, metadata.WithExclusionDecider(ex))
	return NewProvider(DefaultFactories(meta, ex, "", user...), c, WithRegistry(registry))
}

func encode(t *testing.T, p *Provider, value any, serializeNull bool) string {
	t.Helper()
	adapter, err := p.GetAdapter(p.Registry().FromValue(value))
	require.NoError(t, err)
	w := jsonio.NewWriter(context.Background(), serializeNull)
	require.NoError(t, adapter.Write(w, value))
	b, err := w.Bytes()
	require.NoError(t, err)
	return string(b)
}

func decode[T any](t *testing.T, p *Provider, data string) any {
	t.Helper()
	adapter, err := p.GetAdapter(p.Registry().FromType(reflect.TypeFor[T]()))
	require.NoError(t, err)
	v, err := adapter.Read(jsonio.NewBytesReader(context.Background(), []byte(data)))
	require.NoError(t, err)
	return v
}

func TestReflection_RoundTrip(t *testing.T) {
	p := newTestProvider(t, nil)
	station := Station{
		Callsign: "M0ABC",
		Power:    100,
		Bands:    []string{"20m", "40m"},
		Counts:   map[string]int{"ssb": 1, "cw": 2},
		Home:     &Location{Grid: "IO91", Lat: 51.5},
		Active:   true,
		Seen:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ID:       uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		Extra:    types.JSON(`{"a":1}`),
	}
	want := `{"callsign":"M0ABC","power":100,"bands":["20m","40m"],"counts":{"cw":2,"ssb":1},` +
		`"home":{"grid":"IO91","lat":51.5},"active":true,"seen":"2024-03-01",` +
		`"id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","extra":{"a":1}}`

	got := encode(t, p, station, false)
	assert.Equal(t, want, got)
	assert.Equal(t, station, decode[Station](t, p, got))
}

func TestReflection_Nulls(t *testing.T) {
	p := newTestProvider(t, nil)

	assert.Equal(t, `{"call":"K1ABC"}`, encode(t, p, Contact{Call: "K1ABC"}, false))
	assert.Equal(t, `{"call":"K1ABC","note":null,"extra":null}`, encode(t, p, Contact{Call: "K1ABC"}, true))
	assert.Equal(t, `null`, encode(t, p, (*Contact)(nil), false))

	got := decode[Contact](t, p, `{"call":null,"note":"x","extra":5}`).(Contact)
	assert.Equal(t, "", got.Call)
	require.NotNil(t, got.Note)
	assert.Equal(t, "x", *got.Note)
	assert.Equal(t, null.IntFrom(5), got.Extra)

	assert.Nil(t, decode[Contact](t, p, `null`))
}

func TestReflection_UnknownMembersSkipped(t *testing.T) {
	p := newTestProvider(t, nil)
	got := decode[Contact](t, p, `{"unknown":{"deep":[1,2,{"x":null}]},"call":"A","z":1}`)
	assert.Equal(t, Contact{Call: "A"}, got)
}

func TestReflection_SelfReference(t *testing.T) {
	p := newTestProvider(t, nil)
	node := Node{Value: 1, Next: &Node{Value: 2}, Children: []Node{{Value: 3}}}

	got := encode(t, p, node, false)
	assert.Equal(t, `{"value":1,"next":{"value":2},"children":[{"value":3}]}`, got)
	assert.Equal(t, node, decode[Node](t, p, got))
}

func TestReflection_ClassExclusion(t *testing.T) {
	p := newTestProvider(t, nil)
	assert.Equal(t, `{"name":"a"}`, encode(t, p, Wrapper{Name: "a", Hidden: Hidden{Code: "x"}}, false))

	got := decode[Wrapper](t, p, `{"name":"a","hidden":{"code":"y"}}`)
	assert.Equal(t, Wrapper{Name: "a", Hidden: Hidden{Code: "y"}}, got)
}

func TestReflection_ExclusionChecker(t *testing.T) {
	p := newTestProvider(t, nil)
	assert.Equal(t, `{"public":"a"}`, encode(t, p, Guarded{Public: "a", Private: "b"}, false))
	assert.Equal(t, Guarded{Public: "a", Private: "b"}, decode[Guarded](t, p, `{"public":"a","private":"b"}`))
}

func TestReflection_AnnotationAdapters(t *testing.T) {
	c := constructor.New()
	c.RegisterNamed("upper", func() any { return upperAdapter{} })
	c.RegisterNamed("redact", func() any {
		return SerializerFunc(func(any, *typetoken.TypeToken, *SerializationContext) (jsonio.Element, error) {
			return jsonio.NewString("***"), nil
		})
	})
	c.RegisterNamed("bogus", func() any { return 42 })
	p := newTestProvider(t, c)

	assert.Equal(t, `{"name":"ABC","other":"def"}`, encode(t, p, Tagged{Name: "abc", Other: "def"}, false))
	assert.Equal(t, Tagged{Name: "abc", Other: "DEF"}, decode[Tagged](t, p, `{"name":"ABC","other":"DEF"}`))

	assert.Equal(t, `"***"`, encode(t, p, Secret{Value: "x"}, false))
	assert.Equal(t, Secret{Value: "x"}, decode[Secret](t, p, `{"value":"x"}`))

	adapter, err := p.GetAdapter(p.Registry().FromType(reflect.TypeFor[Broken]()))
	require.NoError(t, err)
	err = adapter.Write(jsonio.NewWriter(context.Background(), false), Broken{Name: "x"})
	assert.True(t, errors.Is(err, sentinel.ErrInvalidAdapterConfiguration))
}

func TestCustomWrapped_DeserializerOverride(t *testing.T) {
	deserializer := DeserializerFunc(func(el jsonio.Element, _ *typetoken.TypeToken, ctx *DeserializationContext) (any, error) {
		obj := el.(*jsonio.Object)
		grid, _ := obj.Get("grid")
		v, err := ctx.Deserialize(grid, typetoken.MustParse("string"))
		if err != nil {
			return nil, err
		}
		return Location{Grid: "SENTINEL-" + v.(string)}, nil
	})
	factory, err := NewCustomWrappedFactory("Location", nil, deserializer)
	require.NoError(t, err)
	p := newTestProvider(t, nil, factory)

	got := decode[Station](t, p, `{"callsign":"A","home":{"grid":"IO91","lat":1}}`).(Station)
	require.NotNil(t, got.Home)
	assert.Equal(t, Location{Grid: "SENTINEL-IO91"}, *got.Home)

	assert.Equal(t, `{"grid":"JO01","lat":2}`, encode(t, p, Location{Grid: "JO01", Lat: 2}, false))

	_, err = NewCustomWrappedFactory("Location", nil, nil)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidAdapterConfiguration))
}

func TestCustomWrapped_SerializerContext(t *testing.T) {
	serializer := SerializerFunc(func(value any, _ *typetoken.TypeToken, ctx *SerializationContext) (jsonio.Element, error) {
		loc := value.(Location)
		lat, err := ctx.Serialize(loc.Lat)
		if err != nil {
			return nil, err
		}
		return jsonio.NewArray(jsonio.NewString(loc.Grid), lat), nil
	})
	factory, err := NewCustomWrappedFactory("Location", serializer, nil)
	require.NoError(t, err)
	p := newTestProvider(t, nil, factory)

	assert.Equal(t, `["IO91",51.5]`, encode(t, p, Location{Grid: "IO91", Lat: 51.5}, false))
	assert.Equal(t, Location{Grid: "IO91", Lat: 51.5}, decode[Location](t, p, `{"grid":"IO91","lat":51.5}`))
}

func TestProvider_CachesAdapters(t *testing.T) {
	factory := &countingFactory{}
	p := newTestProvider(t, nil, factory)
	token := p.Registry().FromType(reflect.TypeFor[Band]())

	first, err := p.GetAdapter(token)
	require.NoError(t, err)
	second, err := p.GetAdapter(token)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), factory.calls.Load())

	delegate, err := p.GetDelegateAdapter(factory, token)
	require.NoError(t, err)
	assert.IsType(t, scalarAdapter{}, delegate)
	assert.Equal(t, int32(1), factory.calls.Load())
}

func TestProvider_ConcurrentCreation(t *testing.T) {
	factory := &countingFactory{delay: 20 * time.Millisecond}
	p := newTestProvider(t, nil, factory)
	token := p.Registry().FromType(reflect.TypeFor[Band]())

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			adapter, err := p.GetAdapter(token)
			if err != nil {
				return
			}
			w := jsonio.NewWriter(context.Background(), false)
			if adapter.Write(w, "x") != nil {
				return
			}
			b, _ := w.Bytes()
			results[i] = string(b)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), factory.calls.Load())
	for _, r := range results {
		assert.Equal(t, `"X"`, r)
	}
}

type reentrantFactory struct {
	inner TypeAdapter
}

func (f *reentrantFactory) Supports(t *typetoken.TypeToken) bool { return t.Name() == "reentrant" }

func (f *reentrantFactory) Create(t *typetoken.TypeToken, p *Provider) (TypeAdapter, error) {
	inner, err := p.GetAdapter(t)
	if err != nil {
		return nil, err
	}
	f.inner = inner
	return upperAdapter{}, nil
}

func TestProvider_ReentrantRequestGetsPlaceholder(t *testing.T) {
	factory := &reentrantFactory{}
	p := newTestProvider(t, nil, factory)

	adapter, err := p.GetAdapter(typetoken.MustParse("reentrant"))
	require.NoError(t, err)
	assert.Equal(t, upperAdapter{}, adapter)
	require.IsType(t, &futureAdapter{}, factory.inner)

	w := jsonio.NewWriter(context.Background(), false)
	require.NoError(t, factory.inner.Write(w, "abc"))
	b, err := w.Bytes()
	require.NoError(t, err)
	assert.Equal(t, `"ABC"`, string(b))
}

func TestProvider_Unsupported(t *testing.T) {
	p := newTestProvider(t, nil)
	_, err := p.GetAdapter(typetoken.MustParse("NoSuchClass"))
	assert.True(t, errors.Is(err, sentinel.ErrUnsupportedType))

	_, err = p.GetAdapter(p.Registry().FromType(reflect.TypeFor[chan int]()))
	assert.True(t, errors.Is(err, sentinel.ErrUnsupportedType))
}

func TestProvider_AddTypeAdapter(t *testing.T) {
	p := newTestProvider(t, nil)
	token := p.Registry().FromType(reflect.TypeFor[string]())
	p.AddTypeAdapter(token, upperAdapter{})
	assert.Equal(t, `"HI"`, encode(t, p, "hi", false))
}

func TestWildcard(t *testing.T) {
	p := newTestProvider(t, nil)
	got := decode[map[string]any](t, p, `{"a":[1,"x",true,null,{"b":2.5}]}`)
	assert.Equal(t, map[string]any{"a": []any{1.0, "x", true, nil, map[string]any{"b": 2.5}}}, got)

	assert.Equal(t, `{"b":[1,"x"]}`, encode(t, p, map[string]any{"b": []any{1, "x"}, "a": nil}, false))
	assert.Equal(t, `{"a":null,"b":[1,"x"]}`, encode(t, p, map[string]any{"b": []any{1, "x"}, "a": nil}, true))
}

func TestScalars(t *testing.T) {
	p := newTestProvider(t, nil)

	assert.Equal(t, Band("20m"), decode[Band](t, p, `"20m"`))
	assert.Equal(t, `"20m"`, encode(t, p, Band("20m"), false))
	assert.Equal(t, int8(-5), decode[int8](t, p, `-5`))
	assert.Equal(t, uint16(7), decode[uint16](t, p, `7`))
	assert.Equal(t, float32(0.5), decode[float32](t, p, `0.5`))
	assert.Equal(t, `0.1`, encode(t, p, float32(0.1), false))
	assert.Equal(t, `true`, encode(t, p, true, false))

	adapter, err := p.GetAdapter(p.Registry().FromType(reflect.TypeFor[int8]()))
	require.NoError(t, err)
	_, err = adapter.Read(jsonio.NewBytesReader(context.Background(), []byte(`300`)))
	assert.Error(t, err)

	_, err = adapter.Read(jsonio.NewBytesReader(context.Background(), []byte(`"x"`)))
	assert.True(t, errors.Is(err, sentinel.ErrUnexpectedToken))
}

func TestContainers(t *testing.T) {
	p := newTestProvider(t, nil)

	assert.Equal(t, `{"10":"a","2":"b"}`, encode(t, p, map[int]string{2: "b", 10: "a"}, false))
	assert.Equal(t, map[int]string{2: "b", 10: "a"}, decode[map[int]string](t, p, `{"10":"a","2":"b"}`))

	assert.Equal(t, [2]int{1, 2}, decode[[2]int](t, p, `[1,2,3]`))
	assert.Equal(t, `[1,2]`, encode(t, p, [2]int{1, 2}, false))

	assert.Equal(t, `"aGk="`, encode(t, p, []byte("hi"), false))
	assert.Equal(t, []byte("hi"), decode[[]byte](t, p, `"aGk="`))

	assert.Equal(t, `null`, encode(t, p, []string(nil), false))
	assert.Equal(t, []string{}, decode[[]string](t, p, `[]`))

	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, map[uuid.UUID]int{id: 1}, decode[map[uuid.UUID]int](t, p, `{"6ba7b810-9dad-11d1-80b4-00c04fd430c8":1}`))
}

func TestDateTime_Options(t *testing.T) {
	p := newTestProvider(t, nil)
	token := p.Registry().FromType(reflect.TypeFor[time.Time]()).WithOptions(map[string]any{
		typetoken.OptionFormat:   "2006-01-02 15:04",
		typetoken.OptionTimezone: "Europe/London",
	})
	adapter, err := p.GetAdapter(token)
	require.NoError(t, err)

	w := jsonio.NewWriter(context.Background(), false)
	require.NoError(t, adapter.Write(w, time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)))
	b, err := w.Bytes()
	require.NoError(t, err)
	assert.Equal(t, `"2024-07-01 13:00"`, string(b))

	v, err := adapter.Read(jsonio.NewBytesReader(context.Background(), []byte(`"2024-07-01 13:00"`)))
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC).Equal(v.(time.Time)))

	bad := token.WithOptions(map[string]any{typetoken.OptionTimezone: "Nowhere/Invalid"})
	_, err = p.GetAdapter(bad)
	assert.Error(t, err)
}

func TestElementAdapter(t *testing.T) {
	p := newTestProvider(t, nil)
	got := decode[jsonio.Element](t, p, `{"a":[1,true]}`)
	obj, ok := got.(*jsonio.Object)
	require.True(t, ok)
	assert.True(t, obj.Has("a"))
	assert.Equal(t, jsonio.NullElement{}, decode[jsonio.Element](t, p, `null`))

	el := jsonio.NewObject().AddString("k", "v")
	assert.Equal(t, `{"k":"v"}`, encode(t, p, el, false))
}

func TestRawJSON(t *testing.T) {
	p := newTestProvider(t, nil)
	assert.Equal(t, types.JSON(`{"a":[1,2]}`), decode[types.JSON](t, p, `{ "a" : [1, 2] }`))
	assert.Equal(t, null.JSONFrom([]byte(`[true]`)), decode[null.JSON](t, p, `[true]`))
	assert.Equal(t, `{"x":null}`, encode(t, p, map[string]null.JSON{"x": {}}, true))
}

func BenchmarkReflection_Write(b *testing.B) {
	registry := typetoken.NewRegistry()
	ex, _ := excluder.New()
	meta := metadata.NewFactory(registry, metadata.WithExclusionDecider(ex))
	p := NewProvider(DefaultFactories(meta, ex, ""), nil, WithRegistry(registry))
	station := Station{Callsign: "M0ABC", Bands: []string{"20m"}, Home: &Location{Grid: "IO91"}}
	adapter, err := p.GetAdapter(registry.FromValue(station))
	if err != nil {
		b.Fatal(err)
	}
	for b.Loop() {
		w := jsonio.NewWriter(context.Background(), false)
		if err := adapter.Write(w, station); err != nil {
			b.Fatal(err)
		}
	}
}
