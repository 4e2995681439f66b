package query

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"
)

// Query is a structured description of a list request.
//
// Values are expected to be strings or string slices, mirroring URL query
// parameters. Booleans, numbers, nested maps and []any are accepted as well.
// A nil value means the filter is unset and is ignored by Normalize and Values.
// time.Time values are rendered in UTC as RFC 3339 with nanoseconds, so equal
// instants produce equal keys regardless of location or monotonic reading.
type Query map[string]any

// Normalize returns the canonical cache key for q.
//
// The key is a JSON-style object with keys in sorted order and nil values
// dropped. Slice order is preserved, so ["a","b"] and ["b","a"] produce
// different keys. Normalize is pure and never fails.
func Normalize(q Query) string {
	return string(appendMap(nil, map[string]any(q)))
}

// Hash returns a short digest of the canonical key.
// Format: the first 16 hex characters of SHA-256(Normalize(q)).
func Hash(q Query) string {
	sum := sha256.Sum256([]byte(Normalize(q)))
	return hex.EncodeToString(sum[:8])
}

// Key returns Normalize(q).
func (q Query) Key() string {
	return Normalize(q)
}

// Clone returns a shallow copy of q. Slice values are copied.
func (q Query) Clone() Query {
	if q == nil {
		return nil
	}
	out := make(Query, len(q))
	for k, v := range q {
		switch val := v.(type) {
		case []string:
			out[k] = append([]string(nil), val...)
		case []any:
			out[k] = append([]any(nil), val...)
		default:
			out[k] = v
		}
	}
	return out
}

// Values renders q as URL query parameters. Slices become repeated
// parameters; nil values are omitted.
func (q Query) Values() url.Values {
	vals := make(url.Values, len(q))
	for k, v := range q {
		switch val := v.(type) {
		case nil:
			continue
		case []string:
			for _, s := range val {
				vals.Add(k, s)
			}
		case []any:
			for _, item := range val {
				if item == nil {
					continue
				}
				vals.Add(k, scalarString(item))
			}
		default:
			vals.Set(k, scalarString(val))
		}
	}
	return vals
}

func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return formatTime(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func appendValue(buf []byte, v any) []byte {
	switch val := v.(type) {
	case nil:
		return append(buf, "null"...)
	case string:
		return strconv.AppendQuote(buf, val)
	case bool:
		return strconv.AppendBool(buf, val)
	case map[string]any:
		return appendMap(buf, val)
	case Query:
		return appendMap(buf, map[string]any(val))
	case []string:
		buf = append(buf, '[')
		for i, s := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = strconv.AppendQuote(buf, s)
		}
		return append(buf, ']')
	case []any:
		buf = append(buf, '[')
		for i, item := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendValue(buf, item)
		}
		return append(buf, ']')
	case time.Time:
		return strconv.AppendQuote(buf, formatTime(val))
	case fmt.Stringer:
		return strconv.AppendQuote(buf, val.String())
	}

	data, err := json.Marshal(v)
	if err != nil {
		return strconv.AppendQuote(buf, fmt.Sprint(v))
	}
	return append(buf, data...)
}

func appendMap(buf []byte, m map[string]any) []byte {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, k)
		buf = append(buf, ':')
		buf = appendValue(buf, m[k])
	}
	return append(buf, '}')
}
