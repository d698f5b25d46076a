package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Accessors(t *testing.T) {
	testCases := []struct {
		name   string
		value  Value
		kind   Kind
		format string
	}{
		{name: "string", value: String("hello"), kind: KindString, format: "hello"},
		{name: "int", value: Int(42), kind: KindInt, format: "42"},
		{name: "float", value: Float(1.5), kind: KindFloat, format: "1.5"},
		{name: "bool", value: Bool(true), kind: KindBool, format: "true"},
		{name: "array", value: Array(Int(1), Int(2)), kind: KindArray, format: "[1,2]"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, tc.value.Kind())
			assert.Equal(t, tc.format, tc.value.Format())
		})
	}
}

func TestValue_KindMismatch(t *testing.T) {
	v := String("text")
	_, ok := v.Int()
	assert.False(t, ok)
	text, ok := v.Text()
	assert.True(t, ok)
	assert.Equal(t, "text", text)
}

func TestValueOf_RoundTrip(t *testing.T) {
	native := map[string]interface{}{
		"name":  "router",
		"count": 3,
		"score": 0.75,
		"done":  true,
		"tags":  []interface{}{"a", "b"},
	}
	v := ValueOf(native)
	require.Equal(t, KindDict, v.Kind())
	assert.Equal(t, native, v.Native())
}

func TestValue_JSON(t *testing.T) {
	v := Dict(map[string]Value{
		"steps": Array(String("plan"), String("act")),
		"total": Int(2),
	})
	data, err := json.Marshal(v)
	require.NoError(t, err)

	var decoded Value
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, v.Equal(decoded))
}

func TestMetadata_Merge(t *testing.T) {
	dest := Metadata{"model": String("base")}
	dest.Merge(Metadata{"model": String("override"), "tokens": Int(10)})
	assert.True(t, dest["model"].Equal(String("override")))
	assert.True(t, dest["tokens"].Equal(Int(10)))
}

func TestMetadata_MergeNamespaced(t *testing.T) {
	dest := Metadata{}
	dest.MergeNamespaced("step_0", Metadata{"latency": Int(12)})
	dest.MergeNamespaced("step_1", Metadata{"latency": Int(30)})

	// last write wins on the plain key, provenance keys keep both
	assert.True(t, dest["latency"].Equal(Int(30)))
	assert.True(t, dest["step_0.latency"].Equal(Int(12)))
	assert.True(t, dest["step_1.latency"].Equal(Int(30)))
}
