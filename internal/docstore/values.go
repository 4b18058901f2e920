package docstore

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// normalize converts a Go value into the value tree shape a document store
// hands back on read: int64, float64, string, bool, time.Time, nil,
// []interface{} and map[string]interface{}. Sentinels pass through.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case serverTimestamp, increment:
		return t
	case string, bool, int64, float64:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC()
	case Fields:
		return normalizeMap(t)
	case map[string]interface{}:
		return normalizeMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = normalize(iter.Value().Interface())
		}
		return out
	}
	return v
}

func normalizeMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

// cloneValue deep-copies maps and slices of a normalized value tree.
func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// resolveSentinels replaces ServerTimestamp with now and Increment with its
// delta applied to the previous value found at the same path in prev.
func resolveSentinels(fields map[string]interface{}, prev map[string]interface{}, now time.Time) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		var prevVal interface{}
		if prev != nil {
			prevVal = prev[k]
		}
		out[k] = resolveValue(v, prevVal, now)
	}
	return out
}

func resolveValue(v, prev interface{}, now time.Time) interface{} {
	switch t := v.(type) {
	case serverTimestamp:
		return now
	case increment:
		return addNumber(prev, t.n)
	case map[string]interface{}:
		prevMap, _ := prev.(map[string]interface{})
		return resolveSentinels(t, prevMap, now)
	}
	return v
}

func addNumber(prev interface{}, n int64) interface{} {
	switch p := prev.(type) {
	case int64:
		return p + n
	case float64:
		return p + float64(n)
	}
	return n
}

// applyUpdates merges updates into a copy of doc. Fields not named are kept.
func applyUpdates(doc map[string]interface{}, updates []Update, now time.Time) map[string]interface{} {
	out := cloneMap(doc)
	if out == nil {
		out = map[string]interface{}{}
	}
	for _, u := range updates {
		parts := strings.Split(u.Path, ".")
		parent := out
		for _, p := range parts[:len(parts)-1] {
			child, ok := parent[p].(map[string]interface{})
			if !ok {
				child = map[string]interface{}{}
				parent[p] = child
			}
			parent = child
		}
		leaf := parts[len(parts)-1]
		parent[leaf] = resolveValue(normalize(u.Value), parent[leaf], now)
	}
	return out
}

// lookupPath reads a dotted path from a document.
func lookupPath(doc map[string]interface{}, path string) (interface{}, bool) {
	var cur interface{} = doc
	for _, p := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// compareValues orders two field values. ok is false when the values are not
// of comparable kinds.
func compareValues(a, b interface{}) (int, bool) {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	switch at := a.(type) {
	case string:
		bt, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(at, bt), true
	case bool:
		bt, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case at == bt:
			return 0, true
		case !at:
			return -1, true
		}
		return 1, true
	case time.Time:
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return at.Compare(bt), true
	case nil:
		if b == nil {
			return 0, true
		}
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func matchFilter(doc map[string]interface{}, f Filter) bool {
	v, ok := lookupPath(doc, f.Path)
	if !ok {
		return false
	}
	c, ok := compareValues(v, normalize(f.Value))
	switch f.Op {
	case OpEqual:
		return ok && c == 0
	case OpNotEqual:
		return !ok || c != 0
	case OpLess:
		return ok && c < 0
	case OpLessOrEqual:
		return ok && c <= 0
	case OpGreater:
		return ok && c > 0
	case OpGreaterOrEqual:
		return ok && c >= 0
	}
	return false
}

// evaluate runs the filter, order and limit parts of q over in-process
// snapshots. Documents missing an ordered field are excluded, and ties are
// broken by document key.
func evaluate(q Query, docs []*Snapshot) []*Snapshot {
	matched := make([]*Snapshot, 0, len(docs))
outer:
	for _, d := range docs {
		for _, f := range q.Filters {
			if !matchFilter(d.Data, f) {
				continue outer
			}
		}
		for _, o := range q.Orders {
			if _, ok := lookupPath(d.Data, o.Path); !ok {
				continue outer
			}
		}
		matched = append(matched, d)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		for _, o := range q.Orders {
			a, _ := lookupPath(matched[i].Data, o.Path)
			b, _ := lookupPath(matched[j].Data, o.Path)
			c, _ := compareValues(a, b)
			if c == 0 {
				continue
			}
			if o.Dir == Desc {
				return c > 0
			}
			return c < 0
		}
		return matched[i].ID < matched[j].ID
	})

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched
}
