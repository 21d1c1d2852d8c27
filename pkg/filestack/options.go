package filestack

import (
	"fmt"
	"sort"
	"strings"
)

// Option is a single key/value pair passed to CreateURL.
type Option struct {
	Key   string
	Value any
}

// Options is an ordered list of options. Order matters: upload options are
// appended to the query string in the order they appear here.
type Options []Option

// OptionsFromMap builds Options from a map. Maps carry no order, so keys are sorted.
func OptionsFromMap(m map[string]any) Options {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := make(Options, 0, len(keys))
	for _, k := range keys {
		opts = append(opts, Option{Key: k, Value: m[k]})
	}
	return opts
}

// With returns a copy of o with the pair appended.
func (o Options) With(key string, value any) Options {
	out := make(Options, len(o), len(o)+1)
	copy(out, o)
	return append(out, Option{Key: key, Value: value})
}

// Normalize returns a copy of o with lowercased keys. When two keys collide after
// lowercasing, the first position is kept and the last value wins.
func (o Options) Normalize() Options {
	out := make(Options, 0, len(o))
	index := make(map[string]int, len(o))
	for _, opt := range o {
		key := strings.ToLower(opt.Key)
		if i, ok := index[key]; ok {
			out[i].Value = opt.Value
			continue
		}
		index[key] = len(out)
		out = append(out, Option{Key: key, Value: opt.Value})
	}
	return out
}

// Lookup returns the value of key rendered as a string. Keys are compared exactly,
// so call it on normalized options.
func (o Options) Lookup(key string) (string, bool) {
	for _, opt := range o {
		if opt.Key == key {
			return formatValue(opt.Value), true
		}
	}
	return "", false
}

// Get is Lookup without the presence flag.
func (o Options) Get(key string) string {
	v, _ := o.Lookup(key)
	return v
}

// Filter returns the options whose key is in allowed, preserving the order of o.
func (o Options) Filter(allowed []string) Options {
	out := make(Options, 0, len(o))
	for _, opt := range o {
		for _, a := range allowed {
			if opt.Key == a {
				out = append(out, opt)
				break
			}
		}
	}
	return out
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
