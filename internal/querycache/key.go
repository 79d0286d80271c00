package querycache

import (
	"net/url"
	"strings"
)

const (
	KindList   = "list"
	KindDetail = "detail"
)

// Key addresses one cached query. An empty field in a filter key matches any
// value, and filter params must be a subset of the key's params.
type Key struct {
	Resource string
	Kind     string
	Params   map[string]string
}

// ListKey addresses one page or filtered list of a resource.
func ListKey(resource string, params map[string]string) Key {
	return Key{Resource: resource, Kind: KindList, Params: params}
}

// DetailKey addresses a single entity of a resource.
func DetailKey(resource, id string) Key {
	return Key{Resource: resource, Kind: KindDetail, Params: map[string]string{"id": id}}
}

// String is the canonical form of the key: params are sorted and
// query-escaped, so two keys serialize identically only when they are equal.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Resource)
	if k.Kind == "" && len(k.Params) == 0 {
		return b.String()
	}
	b.WriteByte('/')
	b.WriteString(k.Kind)
	if len(k.Params) == 0 {
		return b.String()
	}
	values := make(url.Values, len(k.Params))
	for name, v := range k.Params {
		values.Set(name, v)
	}
	b.WriteByte('?')
	b.WriteString(values.Encode())
	return b.String()
}

// Matches reports whether k belongs to the family described by filter.
func (k Key) Matches(filter Key) bool {
	if filter.Resource != "" && filter.Resource != k.Resource {
		return false
	}
	if filter.Kind != "" && filter.Kind != k.Kind {
		return false
	}
	for name, want := range filter.Params {
		if got, ok := k.Params[name]; !ok || got != want {
			return false
		}
	}
	return true
}

func (k Key) clone() Key {
	if k.Params == nil {
		return k
	}
	params := make(map[string]string, len(k.Params))
	for name, v := range k.Params {
		params[name] = v
	}
	k.Params = params
	return k
}

func matchesAny(k Key, filters []Key) bool {
	for _, f := range filters {
		if k.Matches(f) {
			return true
		}
	}
	return false
}
