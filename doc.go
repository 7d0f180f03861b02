// Package jsonadapters converts Go values to and from JSON through a chain of
// type adapter factories.
//
// Basic Usage
//
//	engine, err := jsonadapters.New(jsonadapters.WithSerializeNull(true))
//	data, err := engine.ToJSON(&station)
//	err = engine.FromJSON(data, &station)
//
// # Type Descriptors
//
// Types can be named by descriptor strings such as "int", "array<string>",
// "map<string,list<int>>" or "?". Struct types become nameable once
// registered with Builder.RegisterType:
//
//	v, err := engine.FromJSONType(data, "map<string,Station>")
//
// # Struct Tags
//
// Property names come from the json tag, or from the naming strategy (snake
// case by default). The adapter tag carries the remaining directives:
//
//	type Station struct {
//	    _        struct{} `adapter:"exclude=deserialize,virtual=Summary:summary"`
//	    Call     string   `json:"call" adapter:"expose"`
//	    Password string   `adapter:"ignore"`
//	    Grid     string   `adapter:"since=1.2,until=2.0"`
//	    Power    int      `adapter:"adapter=watts"`
//	    Created  time.Time `adapter:"format=2006-01-02,timezone=UTC"`
//	    Secret   string   `adapter:"get=Secret,set=SetSecret"`
//	}
//
// The blank field named "_" carries class-level directives.
//
// # Adapter Resolution
//
// For each type the engine asks its factories in order: user factories and
// custom serializers first, then the built-in leaf, container and reflective
// factories. The first adapter created is cached for the type.
//
// # Thread Safety
//
// An Engine is safe for concurrent use. Adapters and class metadata are built
// once per type and shared.
package jsonadapters
