package metadata

import (
	"reflect"
	"strings"

	"github.com/Station-Manager/errors"
	"github.com/blang/semver/v4"
)

const (
	// TagName is the struct tag holding engine directives.
	TagName = "adapter"
	// ClassField is the name of the blank field that carries class-level tags.
	ClassField = "_"
)

// ParseTags reads the json and adapter tags of a field. Virtual property
// directives are accepted only when class is true.
//
//	Name string `json:"name" adapter:"expose,since=1.2,format=2006-01-02"`
func ParseTags(tag reflect.StructTag, class bool) (*AnnotationSet, error) {
	const op errors.Op = "metadata.ParseTags"
	set := NewAnnotationSet()

	if jsonTag, ok := tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(jsonTag, ",")
		switch name {
		case "-":
			set.Add(Exclude{Serialize: true, Deserialize: true})
		case "":
		default:
			set.Add(SerializedName{Value: name})
		}
	}

	raw, ok := tag.Lookup(TagName)
	if !ok {
		return set, nil
	}

	var (
		accessor Accessor
		virtuals VirtualProperties
	)
	for directive := range strings.SplitSeq(raw, ",") {
		directive = strings.TrimSpace(directive)
		if directive == "" {
			continue
		}
		key, value, hasValue := strings.Cut(directive, "=")
		switch key {
		case "-", "ignore":
			set.Add(Exclude{Serialize: true, Deserialize: true})
		case "exclude":
			ex, err := directions(value, hasValue)
			if err != nil {
				return nil, errors.New(op).Err(err).Msg(directive)
			}
			set.Add(Exclude(ex))
		case "expose":
			ex, err := directions(value, hasValue)
			if err != nil {
				return nil, errors.New(op).Err(err).Msg(directive)
			}
			set.Add(Expose(ex))
		case "name":
			set.Add(SerializedName{Value: value})
		case "adapter":
			set.Add(JSONAdapter{Name: value})
		case "check":
			set.Add(ExclusionCheck{})
		case "since", "until":
			v, err := semver.ParseTolerant(value)
			if err != nil {
				return nil, errors.New(op).Err(err).Msg(directive)
			}
			if key == "since" {
				set.Add(Since{Version: v})
			} else {
				set.Add(Until{Version: v})
			}
		case "get":
			accessor.Get = value
		case "set":
			accessor.Set = value
		case "format":
			set.Add(Format{Value: value})
		case "timezone":
			set.Add(Timezone{Value: value})
		case "virtual":
			if !class {
				return nil, errors.New(op).Errorf("%q is only valid on the class field", directive)
			}
			method, name, _ := strings.Cut(value, ":")
			if method == "" {
				return nil, errors.New(op).Errorf("%q names no method", directive)
			}
			virtuals = append(virtuals, VirtualProperty{Method: method, Name: name})
		default:
			return nil, errors.New(op).Errorf("unknown directive %q", directive)
		}
		if hasValue && value == "" {
			return nil, errors.New(op).Errorf("directive %q has an empty value", directive)
		}
	}

	if accessor != (Accessor{}) {
		set.Add(accessor)
	}
	if len(virtuals) > 0 {
		set.Add(virtuals)
	}
	return set, nil
}

type direction struct {
	Serialize   bool
	Deserialize bool
}

func directions(value string, hasValue bool) (direction, error) {
	const op errors.Op = "metadata.directions"
	if !hasValue {
		return direction{Serialize: true, Deserialize: true}, nil
	}
	switch value {
	case "serialize":
		return direction{Serialize: true}, nil
	case "deserialize":
		return direction{Deserialize: true}, nil
	case "both":
		return direction{Serialize: true, Deserialize: true}, nil
	}
	return direction{}, errors.New(op).Errorf("unknown direction %q", value)
}
