package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is an ordered column -> value mapping. Keys keep the projection
// order of the query both in memory and in its JSON encoding.
type Record struct {
	keys   []string
	values []any
}

// FromPairs builds a record from alternating key, value arguments.
// It panics on an odd argument count or a non-string key.
func FromPairs(kv ...any) Record {
	if len(kv)%2 != 0 {
		panic("normalize: odd number of arguments to FromPairs")
	}
	var r Record
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("normalize: key %v is not a string", kv[i]))
		}
		r.Set(key, Value(kv[i+1]))
	}
	return r
}

func (r Record) Len() int {
	return len(r.keys)
}

// Keys returns a copy of the record keys in order.
func (r Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Values returns a copy of the record values in key order.
func (r Record) Values() []any {
	return append([]any(nil), r.values...)
}

func (r Record) Get(key string) (any, bool) {
	for i, k := range r.keys {
		if k == key {
			return r.values[i], true
		}
	}
	return nil, false
}

// Set replaces the value of an existing key in place or appends a new key.
func (r *Record) Set(key string, value any) {
	for i, k := range r.keys {
		if k == key {
			r.values[i] = value
			return
		}
	}
	r.keys = append(r.keys, key)
	r.values = append(r.values, value)
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record: expected object, got %v", tok)
	}

	var out Record
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: expected key, got %v", tok)
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("record: column %q: %w", key, err)
		}
		if n, ok := v.(json.Number); ok {
			v = numberValue(n)
		}
		out.Set(key, v)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = out
	return nil
}
