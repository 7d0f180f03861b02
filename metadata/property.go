package metadata

import (
	"reflect"

	"github.com/Station-Manager/jsonadapters/typetoken"
)

// Property describes one serialized member of a class. The metadata factory
// publishes properties read-only; only visitors may change the skip flags.
type Property struct {
	name             string
	serializedName   string
	class            string
	token            *typetoken.TypeToken
	getter           GetterStrategy
	setter           SetterStrategy
	annotations      *AnnotationSet
	classAnnotations *AnnotationSet
	skipSerialize    bool
	skipDeserialize  bool
	virtual          bool
	depth            int
}

// Name returns the Go field or method name.
func (p *Property) Name() string { return p.name }

// SerializedName returns the JSON member name.
func (p *Property) SerializedName() string { return p.serializedName }

// DeclaringClass returns the name of the class the property belongs to.
func (p *Property) DeclaringClass() string { return p.class }

func (p *Property) Type() *typetoken.TypeToken { return p.token }

func (p *Property) Annotations() *AnnotationSet { return p.annotations }

// ClassAnnotations returns the annotations of the declaring class.
func (p *Property) ClassAnnotations() *AnnotationSet { return p.classAnnotations }

func (p *Property) Readable() bool { return p.getter != nil }

func (p *Property) Writable() bool { return p.setter != nil }

func (p *Property) IsVirtual() bool { return p.virtual }

func (p *Property) SkipSerialize() bool { return p.skipSerialize }

func (p *Property) SkipDeserialize() bool { return p.skipDeserialize }

// SetSkipSerialize is meant for visitors.
func (p *Property) SetSkipSerialize(skip bool) { p.skipSerialize = skip }

// SetSkipDeserialize is meant for visitors.
func (p *Property) SetSkipDeserialize(skip bool) { p.skipDeserialize = skip }

// Get reads the property from an addressable struct value.
func (p *Property) Get(obj reflect.Value) (reflect.Value, error) {
	return p.getter.Get(obj)
}

// Set writes the property into an addressable struct value.
func (p *Property) Set(obj reflect.Value, value reflect.Value) error {
	return p.setter.Set(obj, value)
}

// PropertyCollection keeps properties in declaration order, indexed by
// serialized and Go name.
type PropertyCollection struct {
	items        []*Property
	bySerialized map[string]*Property
	byName       map[string]*Property
}

func NewPropertyCollection() *PropertyCollection {
	return &PropertyCollection{
		bySerialized: make(map[string]*Property),
		byName:       make(map[string]*Property),
	}
}

// Add appends p unless a property with the same serialized name exists.
func (c *PropertyCollection) Add(p *Property) bool {
	if _, ok := c.bySerialized[p.serializedName]; ok {
		return false
	}
	c.items = append(c.items, p)
	c.bySerialized[p.serializedName] = p
	if _, ok := c.byName[p.name]; !ok {
		c.byName[p.name] = p
	}
	return true
}

func (c *PropertyCollection) GetBySerializedName(name string) *Property { return c.bySerialized[name] }

func (c *PropertyCollection) GetByName(name string) *Property { return c.byName[name] }

// All returns the properties in order. The slice must not be modified.
func (c *PropertyCollection) All() []*Property { return c.items }

func (c *PropertyCollection) Len() int { return len(c.items) }

// ClassMetadata describes a struct type.
type ClassMetadata struct {
	name            string
	rtype           reflect.Type
	token           *typetoken.TypeToken
	annotations     *AnnotationSet
	properties      *PropertyCollection
	virtuals        []*Property
	skipSerialize   bool
	skipDeserialize bool
}

func (c *ClassMetadata) Name() string { return c.name }

func (c *ClassMetadata) Type() reflect.Type { return c.rtype }

func (c *ClassMetadata) Token() *typetoken.TypeToken { return c.token }

func (c *ClassMetadata) Annotations() *AnnotationSet { return c.annotations }

func (c *ClassMetadata) Properties() *PropertyCollection { return c.properties }

// VirtualProperties returns the method backed properties in tag order.
func (c *ClassMetadata) VirtualProperties() []*Property { return c.virtuals }

func (c *ClassMetadata) SkipSerialize() bool { return c.skipSerialize }

func (c *ClassMetadata) SkipDeserialize() bool { return c.skipDeserialize }

// SetSkipSerialize is meant for visitors.
func (c *ClassMetadata) SetSkipSerialize(skip bool) { c.skipSerialize = skip }

// SetSkipDeserialize is meant for visitors.
func (c *ClassMetadata) SetSkipDeserialize(skip bool) { c.skipDeserialize = skip }
