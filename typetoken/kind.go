package typetoken

// Kind is the coarse classification of a TypeToken.
type Kind uint8

const (
	Invalid Kind = iota
	String
	Integer
	Float
	Boolean
	Array
	Map
	Object
	Null
	Resource
	Wildcard
	Pointer
)

var kindNames = [...]string{
	Invalid:  "invalid",
	String:   "string",
	Integer:  "integer",
	Float:    "float",
	Boolean:  "boolean",
	Array:    "array",
	Map:      "map",
	Object:   "object",
	Null:     "null",
	Resource: "resource",
	Wildcard: "wildcard",
	Pointer:  "pointer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsScalar reports whether values of this kind are JSON leaves.
func (k Kind) IsScalar() bool {
	switch k {
	case String, Integer, Float, Boolean:
		return true
	default:
		return false
	}
}
