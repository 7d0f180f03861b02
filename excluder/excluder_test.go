package excluder

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Station-Manager/jsonadapters/metadata"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

type Contact struct {
	Call      string `adapter:"expose"`
	Name      string
	Secret    string `adapter:"exclude"`
	WriteOnly string `adapter:"exclude=serialize"`
	Both      string `adapter:"exclude,expose"`
	ReadOnly  string `adapter:"expose=serialize"`
	Modern    string `adapter:"since=2.0"`
	Legacy    string `adapter:"until=2.0"`
	Checked   string `adapter:"check"`
}

type ExposedByClass struct {
	_ struct{} `adapter:"expose"`

	Freq   float64
	Hidden string `adapter:"expose=deserialize"`
}

type Archived struct {
	_ struct{} `adapter:"exclude=serialize"`

	ID int
}

type vetoing struct {
	Keep string
	Drop string
}

func (v *vetoing) ShouldExclude(property string, serialize bool) bool {
	return serialize && property == "Drop"
}

type nameStrategy struct{ name string }

func (s nameStrategy) ShouldSkipClass(*metadata.ClassMetadata) bool { return false }

func (s nameStrategy) ShouldSkipProperty(p *metadata.Property) bool { return p.Name() == s.name }

func classOf[T any](t *testing.T, e *Excluder) *metadata.ClassMetadata {
	t.Helper()
	f := metadata.NewFactory(nil, metadata.WithExclusionDecider(e))
	class, err := f.Create(typetoken.FromType(reflect.TypeFor[T]()))
	require.NoError(t, err)
	return class
}

func TestExcludeProperty_Defaults(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	class := classOf[Contact](t, e)
	props := class.Properties()

	tests := []struct {
		name                string
		serialize, deserial bool
	}{
		{"Call", false, false},
		{"Name", false, false},
		{"Secret", true, true},
		{"WriteOnly", true, false},
		{"Both", true, true},
		{"ReadOnly", false, false},
		{"Modern", false, false},
		{"Legacy", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := props.GetByName(tt.name)
			require.NotNil(t, p)
			assert.Equal(t, tt.serialize, p.SkipSerialize(), "serialize")
			assert.Equal(t, tt.deserial, p.SkipDeserialize(), "deserialize")
		})
	}
}

func TestExcludeProperty_RequireExpose(t *testing.T) {
	e, err := New(WithRequireExpose(true))
	require.NoError(t, err)
	props := classOf[Contact](t, e).Properties()

	assert.False(t, props.GetByName("Call").SkipSerialize())
	assert.True(t, props.GetByName("Name").SkipSerialize())
	assert.True(t, props.GetByName("Name").SkipDeserialize())
	// exclusion beats exposure
	assert.True(t, props.GetByName("Both").SkipSerialize())
	assert.False(t, props.GetByName("ReadOnly").SkipSerialize())
	assert.True(t, props.GetByName("ReadOnly").SkipDeserialize())
}

func TestExcludeProperty_ClassExposeIsDefault(t *testing.T) {
	e, err := New(WithRequireExpose(true))
	require.NoError(t, err)
	class := classOf[ExposedByClass](t, e)

	assert.False(t, class.SkipSerialize(), "require-expose never excludes classes")
	assert.False(t, class.Properties().GetByName("Freq").SkipSerialize())
	assert.True(t, class.Properties().GetByName("Hidden").SkipSerialize())
	assert.False(t, class.Properties().GetByName("Hidden").SkipDeserialize())
}

func TestExcludeProperty_Version(t *testing.T) {
	tests := []struct {
		version        string
		modern, legacy bool
	}{
		{"1.5.0", true, false},
		{"2.0.0", false, true},
		{"v3", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			e, err := New(WithVersion(tt.version))
			require.NoError(t, err)
			props := classOf[Contact](t, e).Properties()
			assert.Equal(t, tt.modern, props.GetByName("Modern").SkipSerialize())
			assert.Equal(t, tt.legacy, props.GetByName("Legacy").SkipSerialize())
		})
	}
}

func TestNew_InvalidVersion(t *testing.T) {
	_, err := New(WithVersion("not.a.version"))
	assert.Error(t, err)
}

func TestExcludeClass(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	class := classOf[Archived](t, e)
	assert.True(t, class.SkipSerialize())
	assert.False(t, class.SkipDeserialize())
}

func TestStrategies_PerDirection(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	e.AddStrategy(nameStrategy{name: "Name"}, true, false)

	p := classOf[Contact](t, e).Properties().GetByName("Name")
	assert.True(t, p.SkipSerialize())
	assert.False(t, p.SkipDeserialize())
}

func TestExcludeByValue(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	class := classOf[vetoing](t, e)
	assert.True(t, e.ChecksValues(class))

	v := &vetoing{}
	assert.True(t, e.ExcludeByValue(class.Properties().GetByName("Drop"), v, true))
	assert.False(t, e.ExcludeByValue(class.Properties().GetByName("Drop"), v, false))
	assert.False(t, e.ExcludeByValue(class.Properties().GetByName("Keep"), v, true))
}

func TestExcludeByValue_RequireExclusionCheck(t *testing.T) {
	e, err := New(WithRequireExclusionCheck(true))
	require.NoError(t, err)
	e.AddDynamicStrategy(DynamicStrategyFunc(func(p *metadata.Property, object any, serialize bool) bool {
		return true
	}))
	props := classOf[Contact](t, e).Properties()

	assert.True(t, e.ExcludeByValue(props.GetByName("Checked"), &Contact{}, true))
	assert.False(t, e.ExcludeByValue(props.GetByName("Name"), &Contact{}, true))
}

func TestChecksValues_NoSources(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	assert.False(t, e.ChecksValues(classOf[Contact](t, e)))
}
