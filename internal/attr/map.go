package attr

// Map is a heterogeneous attribute bag keyed by field name
type Map map[string]Value

// Get returns the value stored under key, or Absent when the key is missing
func (m Map) Get(key string) Value {
	if m == nil {
		return Absent()
	}
	return m[key]
}

// Has reports whether key holds a non-absent value
func (m Map) Has(key string) bool {
	return !m.Get(key).IsAbsent()
}

// Clone returns a shallow copy; values are immutable so this is sufficient
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Equal compares two maps key-wise over the union of their keys
func (m Map) Equal(o Map) bool {
	for k, v := range m {
		if !v.Equal(o.Get(k)) {
			return false
		}
	}
	for k, v := range o {
		if _, seen := m[k]; seen {
			continue
		}
		if !v.IsAbsent() {
			return false
		}
	}
	return true
}

// Interface converts the map into plain Go values
func (m Map) Interface() map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v.Interface()
	}
	return out
}

// FromMap converts a decoded JSON/YAML object into a Map
func FromMap(raw map[string]interface{}) Map {
	out := make(Map, len(raw))
	for k, v := range raw {
		out[k] = FromInterface(v)
	}
	return out
}
