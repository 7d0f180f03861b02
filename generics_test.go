package jsonadapters

import (
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type OperatorSummary struct {
	Callsign string
	Name     string
	Home     Grid
}

func TestMarshalUnmarshal(t *testing.T) {
	e := newTestEngine(t)

	data, err := Marshal[any](e, map[string]any{"b": 1, "a": []any{"x"}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":["x"],"b":1}`, string(data))

	data, err = Marshal(e, []Grid{{Locator: "IO91"}})
	require.NoError(t, err)
	assert.Equal(t, `[{"locator":"IO91","lat":0}]`, string(data))

	grids, err := Unmarshal[[]Grid](e, data)
	require.NoError(t, err)
	assert.Equal(t, []Grid{{Locator: "IO91"}}, grids)

	v, err := Unmarshal[any](e, []byte(`{"n":1.5,"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 1.5, "ok": true}, v)

	_, err = Unmarshal[int8](e, []byte(`300`))
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	e := newTestEngine(t)

	got, err := Convert[OperatorSummary](e, sampleOperator())
	require.NoError(t, err)
	assert.Equal(t, &OperatorSummary{Callsign: "M0ABC", Name: "Ann", Home: Grid{Locator: "IO91", Lat: 51.5}}, got)

	back, err := Convert[Operator](e, got)
	require.NoError(t, err)
	assert.Equal(t, null.StringFrom("Ann"), back.Name)
	require.NotNil(t, back.Home)
	assert.Equal(t, "IO91", back.Home.Locator)

	_, err = Convert[Grid](e, []string{"not", "an", "object"})
	assert.Error(t, err)
}

func TestConvertSlice(t *testing.T) {
	e := newTestEngine(t)
	ops := []Operator{sampleOperator(), {Callsign: "K1ABC"}}

	got, err := ConvertSlice[OperatorSummary](e, ops)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "M0ABC", got[0].Callsign)
	assert.Equal(t, OperatorSummary{Callsign: "K1ABC"}, got[1])

	_, err = ConvertSlice[Grid](e, []any{Grid{}, 5})
	assert.Error(t, err)
}
