package requester

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Params is an ordered parameter set. Keys are unique and keep the order
// in which they were first set; a value is either a scalar or a slice of
// scalars.
type Params struct {
	keys   []string
	values map[string]any
}

// NewParams builds a Params from alternating key/value arguments.
// It panics on an odd argument count or a non-string key.
func NewParams(kv ...any) *Params {
	if len(kv)%2 != 0 {
		panic("requester: NewParams needs an even number of arguments")
	}
	p := &Params{}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("requester: NewParams key %v is not a string", kv[i]))
		}
		p.Set(key, kv[i+1])
	}
	return p
}

// ParamsFromMap copies m into a Params. Go maps carry no order, so keys
// are sorted to keep the encoded query deterministic.
func ParamsFromMap(m map[string]any) *Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := &Params{}
	for _, k := range keys {
		p.Set(k, m[k])
	}
	return p
}

// Set stores value under key. An existing key keeps its position.
func (p *Params) Set(key string, value any) {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value stored under key
func (p *Params) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[key]
	return v, ok
}

// Len returns the number of keys
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the keys in insertion order
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

// Clone returns a shallow copy that can be modified independently
func (p *Params) Clone() *Params {
	c := &Params{}
	if p == nil {
		return c
	}
	c.keys = append([]string(nil), p.keys...)
	c.values = make(map[string]any, len(p.values))
	for k, v := range p.values {
		c.values[k] = v
	}
	return c
}

// Encode serializes the set into a query string. Slice values expand
// into repeated key=value pairs in slice order; pairs are joined by "&"
// in key insertion order.
func (p *Params) Encode() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	for _, key := range p.keys {
		for _, item := range expandValue(p.values[key]) {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(item))
		}
	}
	return b.String()
}

// MarshalJSON encodes the set as a JSON object in insertion order
func (p *Params) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.values[key])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal param %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the order of its keys
func (p *Params) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("params must be a JSON object")
	}

	*p = Params{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("failed to decode param %q: %w", key, err)
		}
		p.Set(key, value)
	}
	_, err = dec.Token()
	return err
}

// expandValue turns a param value into the query values it contributes
func expandValue(v any) []string {
	if v == nil {
		return []string{""}
	}
	if b, ok := v.([]byte); ok {
		return []string{string(b)}
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, formatScalar(rv.Index(i).Interface()))
		}
		return items
	}
	return []string{formatScalar(v)}
}

func formatScalar(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case json.Number:
		return s.String()
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}
