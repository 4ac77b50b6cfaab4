package attr

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies which variant a Value holds
type Kind int

const (
	KindAbsent Kind = iota
	KindNumber
	KindString
	KindBool
	KindList
	KindMap
)

// String returns the lowercase variant name
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "absent"
	}
}

// Value is a single attribute value. The zero Value is absent, which is also
// what JSON null and missing keys decode to.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	list []Value
	obj  map[string]Value
}

// Absent returns the absent value
func Absent() Value {
	return Value{}
}

// Number wraps a numeric value
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// String wraps a string value
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Bool wraps a boolean value
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// List wraps an ordered sequence of values
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Object wraps a nested mapping
func Object(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, obj: cp}
}

// Kind returns the variant held by v
func (v Value) Kind() Kind {
	return v.kind
}

// IsAbsent reports whether v carries no value
func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent
}

// IsEmpty reports whether v is absent or an empty string
func (v Value) IsEmpty() bool {
	return v.kind == KindAbsent || (v.kind == KindString && v.str == "")
}

// AsNumber returns the numeric payload
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsString returns the string payload
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsBool returns the boolean payload
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsList returns a copy of the list payload
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	cp := make([]Value, len(v.list))
	copy(cp, v.list)
	return cp, true
}

// AsMap returns a copy of the mapping payload
func (v Value) AsMap() (Map, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	cp := make(Map, len(v.obj))
	for k, item := range v.obj {
		cp[k] = item
	}
	return cp, true
}

// Equal performs deep structural comparison. Lists compare element-wise,
// maps key-wise (a key holding an absent value equals a missing key).
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindAbsent:
		return true
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return Map(v.obj).Equal(Map(o.obj))
	}
	return false
}

// Interface converts v back into plain Go values (nil, float64, string,
// bool, []interface{}, map[string]interface{})
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// String renders v for display in match breakdowns and logs
func (v Value) String() string {
	switch v.kind {
	case KindAbsent:
		return "null"
	case KindString:
		return v.str
	case KindNumber, KindBool:
		return fmt.Sprintf("%v", v.Interface())
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.obj[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return ""
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromInterface(raw)
	return nil
}

// FromInterface converts decoded JSON/YAML data into a Value. Unknown types
// fall back to their fmt representation.
func FromInterface(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Absent()
	case Value:
		return t
	case *Value:
		if t == nil {
			return Absent()
		}
		return *t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}
		return String(t.String())
	case []Value:
		return List(t...)
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromInterface(item)
		}
		return Value{kind: KindList, list: items}
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = String(item)
		}
		return Value{kind: KindList, list: items}
	case Map:
		return Object(t)
	case map[string]Value:
		return Object(t)
	case map[string]interface{}:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			obj[k] = FromInterface(item)
		}
		return Value{kind: KindMap, obj: obj}
	case map[interface{}]interface{}:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			obj[fmt.Sprintf("%v", k)] = FromInterface(item)
		}
		return Value{kind: KindMap, obj: obj}
	default:
		return String(fmt.Sprintf("%v", t))
	}
}
