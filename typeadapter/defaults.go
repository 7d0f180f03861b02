package typeadapter

import (
	"github.com/Station-Manager/jsonadapters/excluder"
	"github.com/Station-Manager/jsonadapters/metadata"
)

// DefaultFactories returns the built-in chain with user factories first.
// Leaf factories precede the container factories, and the excluder factory
// sits directly before the reflective one.
func DefaultFactories(m *metadata.Factory, e *excluder.Excluder, datetimeFormat string, user ...Factory) []Factory {
	chain := make([]Factory, 0, len(user)+14)
	chain = append(chain, user...)
	return append(chain,
		NewDateTimeFactory(datetimeFormat),
		NullableFactory{},
		RawFactory{},
		ElementFactory{},
		TextFactory{},
		ScalarFactory{},
		BytesFactory{},
		WildcardFactory{},
		PointerFactory{},
		ArrayFactory{},
		MapFactory{},
		NewExcluderFactory(m),
		NewReflectionFactory(m, e),
	)
}
