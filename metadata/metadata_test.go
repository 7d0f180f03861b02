package metadata

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Station-Manager/jsonadapters/internal/sentinel"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

type Audit struct {
	CreatedBy string
	UpdatedAt time.Time `adapter:"format=2006-01-02"`
}

type Operator struct {
	_ struct{} `adapter:"virtual=DisplayName,virtual=GetInitials:initials,check"`

	Audit
	OperatorID string `json:"id"`
	FullName   string
	Password   string `json:"-"`
	Notes      string `adapter:"exclude=serialize,since=1.1"`
	License    string `adapter:"expose,name=licence"`

	callsign string
	country  string
}

func (o *Operator) Callsign() string          { return o.callsign }
func (o *Operator) SetCallsign(c string)      { o.callsign = c }
func (o Operator) DisplayName() string        { return o.FullName + " (" + o.callsign + ")" }
func (o Operator) GetInitials() string        { return o.FullName[:1] }
func (o *Operator) SetCountry(c string) error { o.country = c; return nil }

type Overridden struct {
	Value string `adapter:"get=ReadValue,set=WriteValue"`
}

func (o Overridden) ReadValue() string      { return "read:" + o.Value }
func (o *Overridden) WriteValue(v string)   { o.Value = "write:" + v }
func (o Overridden) GetValue() string       { return "not used" }
func (o *Overridden) SetValue(string) error { return nil }

type Shadow struct {
	Inner
	Name string
}

type Inner struct {
	Name  string
	Depth int
}

type recordingDecider struct {
	properties map[string]bool
}

func (d recordingDecider) ExcludeClass(*ClassMetadata, bool) bool { return false }

func (d recordingDecider) ExcludeProperty(p *Property, serialize bool) bool {
	return serialize && d.properties[p.Name()]
}

func TestParseTags_Directives(t *testing.T) {
	tag := reflect.StructTag(`json:"call,omitempty" adapter:"exclude=deserialize,expose,since=1.2,until=2.0.0,adapter=upper,check,get=A,set=B,format=15:04,timezone=UTC"`)
	set, err := ParseTags(tag, false)
	require.NoError(t, err)

	sn, ok := Get[SerializedName](set)
	require.True(t, ok)
	assert.Equal(t, "call", sn.Value)

	ex, ok := Get[Exclude](set)
	require.True(t, ok)
	assert.False(t, ex.Applies(true))
	assert.True(t, ex.Applies(false))

	exp, ok := Get[Expose](set)
	require.True(t, ok)
	assert.True(t, exp.Applies(true) && exp.Applies(false))

	since, ok := Get[Since](set)
	require.True(t, ok)
	assert.Equal(t, "1.2.0", since.Version.String())

	until, _ := Get[Until](set)
	assert.Equal(t, "2.0.0", until.Version.String())

	ja, _ := Get[JSONAdapter](set)
	assert.Equal(t, "upper", ja.Name)
	assert.True(t, Has[ExclusionCheck](set))

	acc, _ := Get[Accessor](set)
	assert.Equal(t, Accessor{Get: "A", Set: "B"}, acc)

	f, _ := Get[Format](set)
	assert.Equal(t, "15:04", f.Value)
	tz, _ := Get[Timezone](set)
	assert.Equal(t, "UTC", tz.Value)
}

func TestParseTags_Errors(t *testing.T) {
	for _, tag := range []string{
		`adapter:"bogus"`,
		`adapter:"since=not-a-version"`,
		`adapter:"exclude=sideways"`,
		`adapter:"virtual=Method"`,
		`adapter:"name="`,
	} {
		t.Run(tag, func(t *testing.T) {
			_, err := ParseTags(reflect.StructTag(tag), false)
			assert.Error(t, err)
		})
	}
}

func TestParseTags_JSONDash(t *testing.T) {
	set, err := ParseTags(`json:"-"`, false)
	require.NoError(t, err)
	ex, ok := Get[Exclude](set)
	require.True(t, ok)
	assert.True(t, ex.Serialize && ex.Deserialize)
}

func TestNamingStrategies(t *testing.T) {
	tests := []struct {
		in, snake, camel string
	}{
		{"Name", "name", "name"},
		{"UserID", "user_id", "userID"},
		{"HTTPServer", "http_server", "httpServer"},
		{"ID", "id", "id"},
		{"Band2M", "band2_m", "band2M"},
		{"operatorID", "operator_id", "operatorID"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.snake, SnakeCase.TranslateName(tt.in))
			assert.Equal(t, tt.camel, CamelCase.TranslateName(tt.in))
			assert.Equal(t, tt.in, Identity.TranslateName(tt.in))
		})
	}

	s, err := NamingStrategyByName("camel")
	require.NoError(t, err)
	assert.Equal(t, "userID", s.TranslateName("UserID"))
	_, err = NamingStrategyByName("kebab")
	assert.Error(t, err)
}

func TestMethodNaming(t *testing.T) {
	m := UpperCaseMethods{}
	assert.Equal(t, []string{"GetCallsign", "IsCallsign", "Callsign"}, m.GetterNames("callsign"))
	assert.Equal(t, []string{"SetCallsign"}, m.SetterNames("callsign"))
}

func TestFactory_BuildsProperties(t *testing.T) {
	registry := typetoken.NewRegistry()
	f := NewFactory(registry)

	class, err := f.Create(registry.FromType(reflect.TypeFor[Operator]()))
	require.NoError(t, err)

	var names []string
	for _, p := range class.Properties().All() {
		names = append(names, p.SerializedName())
	}
	assert.Equal(t, []string{"id", "full_name", "password", "notes", "licence", "callsign", "country", "created_by", "updated_at"}, names)

	id := class.Properties().GetBySerializedName("id")
	require.NotNil(t, id)
	assert.Equal(t, "OperatorID", id.Name())
	assert.Same(t, id, class.Properties().GetByName("OperatorID"))

	callsign := class.Properties().GetByName("callsign")
	require.NotNil(t, callsign)
	assert.True(t, callsign.Readable())
	assert.True(t, callsign.Writable())

	country := class.Properties().GetByName("country")
	require.NotNil(t, country)
	assert.False(t, country.Readable())
	assert.True(t, country.Writable())

	updated := class.Properties().GetByName("UpdatedAt")
	require.NotNil(t, updated)
	assert.Equal(t, "2006-01-02", updated.Type().StringOption(typetoken.OptionFormat))

	require.Len(t, class.VirtualProperties(), 2)
	assert.Equal(t, "display_name", class.VirtualProperties()[0].SerializedName())
	assert.Equal(t, "initials", class.VirtualProperties()[1].SerializedName())
	assert.True(t, class.VirtualProperties()[0].SkipDeserialize())
	assert.True(t, Has[ExclusionCheck](class.Annotations()))
}

func TestFactory_AccessorsReadAndWrite(t *testing.T) {
	f := NewFactory(nil)
	class, err := f.Create(typetoken.FromType(reflect.TypeFor[Operator]()))
	require.NoError(t, err)

	op := &Operator{FullName: "Ada"}
	obj := reflect.ValueOf(op).Elem()

	require.NoError(t, class.Properties().GetByName("callsign").Set(obj, reflect.ValueOf("G0ABC")))
	require.NoError(t, class.Properties().GetByName("country").Set(obj, reflect.ValueOf("GB")))
	require.NoError(t, class.Properties().GetByName("CreatedBy").Set(obj, reflect.ValueOf("admin")))
	assert.Equal(t, "G0ABC", op.callsign)
	assert.Equal(t, "GB", op.country)
	assert.Equal(t, "admin", op.CreatedBy)

	v, err := class.Properties().GetByName("callsign").Get(obj)
	require.NoError(t, err)
	assert.Equal(t, "G0ABC", v.Interface())

	display, err := class.VirtualProperties()[0].Get(obj)
	require.NoError(t, err)
	assert.Equal(t, "Ada (G0ABC)", display.Interface())
}

func TestFactory_ExplicitAccessors(t *testing.T) {
	f := NewFactory(nil)
	class, err := f.Create(typetoken.FromType(reflect.TypeFor[Overridden]()))
	require.NoError(t, err)

	p := class.Properties().GetByName("Value")
	o := &Overridden{}
	obj := reflect.ValueOf(o).Elem()
	require.NoError(t, p.Set(obj, reflect.ValueOf("x")))
	assert.Equal(t, "write:x", o.Value)

	v, err := p.Get(obj)
	require.NoError(t, err)
	assert.Equal(t, "read:write:x", v.Interface())
}

type badAccessor struct {
	Value string `adapter:"get=Missing"`
}

func TestFactory_InvalidAccessor(t *testing.T) {
	f := NewFactory(nil)
	_, err := f.Create(typetoken.FromType(reflect.TypeFor[badAccessor]()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidAccessor))
}

func TestFactory_ShallowestFieldWins(t *testing.T) {
	f := NewFactory(nil)
	class, err := f.Create(typetoken.FromType(reflect.TypeFor[Shadow]()))
	require.NoError(t, err)

	name := class.Properties().GetBySerializedName("name")
	require.NotNil(t, name)
	s := &Shadow{Name: "outer", Inner: Inner{Name: "inner"}}
	v, err := name.Get(reflect.ValueOf(s).Elem())
	require.NoError(t, err)
	assert.Equal(t, "outer", v.Interface())
	assert.NotNil(t, class.Properties().GetBySerializedName("depth"))
}

func TestFactory_NotAStruct(t *testing.T) {
	_, err := NewFactory(nil).Create(typetoken.Of[int]())
	assert.True(t, errors.Is(err, sentinel.ErrUnsupportedType))
}

func TestFactory_DeciderAndVisitors(t *testing.T) {
	visited := 0
	f := NewFactory(nil,
		WithExclusionDecider(recordingDecider{properties: map[string]bool{"FullName": true}}),
		WithVisitors(VisitorFunc(func(c *ClassMetadata) {
			visited++
			c.Properties().GetByName("Notes").SetSkipDeserialize(true)
		})),
	)
	tok := typetoken.FromType(reflect.TypeFor[Operator]())
	class, err := f.Create(tok)
	require.NoError(t, err)

	assert.True(t, class.Properties().GetByName("FullName").SkipSerialize())
	assert.False(t, class.Properties().GetByName("FullName").SkipDeserialize())
	assert.True(t, class.Properties().GetByName("Notes").SkipDeserialize())

	again, err := f.Create(tok)
	require.NoError(t, err)
	assert.Same(t, class, again)
	assert.Equal(t, 1, visited)
}

func TestFactory_ConcurrentCreateBuildsOnce(t *testing.T) {
	var mu sync.Mutex
	builds := 0
	f := NewFactory(nil, WithVisitors(VisitorFunc(func(*ClassMetadata) {
		mu.Lock()
		builds++
		mu.Unlock()
	})))
	tok := typetoken.FromType(reflect.TypeFor[Shadow]())

	var wg sync.WaitGroup
	results := make([]*ClassMetadata, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := f.Create(tok)
			assert.NoError(t, err)
			results[i] = c
		}(i)
	}
	wg.Wait()

	for _, c := range results {
		assert.Same(t, results[0], c)
	}
	assert.Equal(t, 1, builds)
}

func TestAssign(t *testing.T) {
	v, err := Assign(reflect.TypeFor[int32](), reflect.ValueOf(int64(12)))
	require.NoError(t, err)
	assert.Equal(t, int32(12), v.Interface())

	v, err = Assign(reflect.TypeFor[string](), reflect.Value{})
	require.NoError(t, err)
	assert.Equal(t, "", v.Interface())

	v, err = Assign(reflect.TypeFor[*int](), reflect.ValueOf(5))
	require.NoError(t, err)
	assert.Equal(t, 5, *(v.Interface().(*int)))

	_, err = Assign(reflect.TypeFor[string](), reflect.ValueOf(5))
	assert.Error(t, err)
}
