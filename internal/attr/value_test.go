package attr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Equal(t *testing.T) {
	testCases := []struct {
		name     string
		a        Value
		b        Value
		expected bool
	}{
		{"absent equals absent", Absent(), Absent(), true},
		{"absent differs from empty string", Absent(), String(""), false},
		{"absent differs from zero", Absent(), Number(0), false},
		{"numbers equal", Number(500), Number(500), true},
		{"numbers differ", Number(500), Number(600), false},
		{"string vs number", String("500"), Number(500), false},
		{"strings are case sensitive", String("Tech"), String("tech"), false},
		{"bools", Bool(true), Bool(true), true},
		{"lists element-wise", List(String("go"), String("rust")), List(String("go"), String("rust")), true},
		{"lists order matters", List(String("go"), String("rust")), List(String("rust"), String("go")), false},
		{"lists length", List(String("go")), List(String("go"), String("go")), false},
		{
			"maps key-wise",
			Object(map[string]Value{"city": String("Austin"), "zip": Number(78701)}),
			Object(map[string]Value{"zip": Number(78701), "city": String("Austin")}),
			true,
		},
		{
			"maps with absent key equal missing key",
			Object(map[string]Value{"city": String("Austin"), "state": Absent()}),
			Object(map[string]Value{"city": String("Austin")}),
			true,
		},
		{
			"nested difference",
			Object(map[string]Value{"tags": List(String("a"))}),
			Object(map[string]Value{"tags": List(String("b"))}),
			false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.a.Equal(tc.b))
			assert.Equal(t, tc.expected, tc.b.Equal(tc.a), "equality must be symmetric")
		})
	}
}

func TestFromInterface(t *testing.T) {
	assert.True(t, FromInterface(nil).IsAbsent())
	assert.Equal(t, KindNumber, FromInterface(42).Kind())
	assert.Equal(t, KindNumber, FromInterface(int64(42)).Kind())
	assert.Equal(t, KindString, FromInterface("x").Kind())
	assert.Equal(t, KindList, FromInterface([]interface{}{"a", 1.0}).Kind())
	assert.Equal(t, KindMap, FromInterface(map[string]interface{}{"a": nil}).Kind())

	n, ok := FromInterface(int32(7)).AsNumber()
	require.True(t, ok)
	assert.Equal(t, 7.0, n)
}

func TestMap_JSONDecodesNullAsAbsent(t *testing.T) {
	var m Map
	err := json.Unmarshal([]byte(`{"industry":"Tech","website":null,"employeeCount":500,"tags":["a","b"]}`), &m)
	require.NoError(t, err)

	assert.True(t, m.Get("website").IsAbsent())
	assert.True(t, m.Get("missing").IsAbsent())
	assert.False(t, m.Has("website"))
	assert.True(t, m.Get("employeeCount").Equal(Number(500)))
	assert.True(t, m.Get("tags").Equal(List(String("a"), String("b"))))
}

func TestValue_IsEmpty(t *testing.T) {
	assert.True(t, Absent().IsEmpty())
	assert.True(t, String("").IsEmpty())
	assert.False(t, String(" ").IsEmpty())
	assert.False(t, Number(0).IsEmpty())
	assert.False(t, Bool(false).IsEmpty())
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "null", Absent().String())
	assert.Equal(t, "500", Number(500).String())
	assert.Equal(t, "[a, 1]", List(String("a"), Number(1)).String())
	assert.Equal(t, "{a: 1, b: x}", Object(map[string]Value{"b": String("x"), "a": Number(1)}).String())
}
