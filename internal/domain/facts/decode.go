package facts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// member is one key/value pair of a JSON object, kept in document order.
type member struct {
	key   string
	value any
}

// object preserves the key order of a decoded JSON object. encoding/json maps
// lose it, and outline bucketing breaks ties by registration order.
type object []member

// DecodeOrdered decodes a JSON document keeping object key order.
// Numbers are returned as json.Number so their literal text survives.
func DecodeOrdered(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode facts: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode facts: unexpected trailing data")
	}
	return root, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := object{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T, want string", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, member{key: key, value: val})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// members returns the ordered members of an object-like value. Plain maps are
// visited in sorted key order so callers building from Go values stay deterministic.
func members(v any) ([]member, bool) {
	switch val := v.(type) {
	case object:
		return val, true
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]member, 0, len(keys))
		for _, k := range keys {
			out = append(out, member{key: k, value: val[k]})
		}
		return out, true
	default:
		return nil, false
	}
}

// plain converts ordered objects back into ordinary Go values for callers.
func plain(v any) any {
	switch val := v.(type) {
	case object:
		out := make(map[string]any, len(val))
		for _, m := range val {
			out[m.key] = plain(m.value)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plain(item)
		}
		return out
	default:
		return val
	}
}
