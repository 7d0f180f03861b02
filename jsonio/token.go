// Package jsonio defines the streaming reader and writer the type adapters
// work against, a goccy/go-json backed implementation of both, and an
// ordered JSON element tree with its own reader and writer.
package jsonio

// Token identifies the kind of the next item in a JSON stream.
type Token uint8

const (
	BeginArray Token = iota + 1
	EndArray
	BeginObject
	EndObject
	Name
	String
	Number
	Boolean
	Null
	EndDocument
)

var tokenNames = [...]string{
	BeginArray:  "BEGIN_ARRAY",
	EndArray:    "END_ARRAY",
	BeginObject: "BEGIN_OBJECT",
	EndObject:   "END_OBJECT",
	Name:        "NAME",
	String:      "STRING",
	Number:      "NUMBER",
	Boolean:     "BOOLEAN",
	Null:        "NULL",
	EndDocument: "END_DOCUMENT",
}

func (t Token) String() string {
	if int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return "UNKNOWN"
}
