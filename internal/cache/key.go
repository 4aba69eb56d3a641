package cache

import (
	"strconv"
	"strings"
)

// Resource names used in keys.
const (
	ResourceAthletes = "athletes"
	ResourceMeets    = "meets"
	ResourceTopTimes = "top-times"
)

// SubResults is the sub-resource of a meet holding its results.
const SubResults = "results"

// Key identifies one cached response: a resource, an optional id and an
// optional sub-resource. ID 0 means the collection.
type Key struct {
	Resource string
	ID       int64
	Sub      string
}

// Athletes is the athlete collection.
func Athletes() Key { return Key{Resource: ResourceAthletes} }

// Athlete is one athlete.
func Athlete(id int64) Key { return Key{Resource: ResourceAthletes, ID: id} }

// Meets is the meet collection.
func Meets() Key { return Key{Resource: ResourceMeets} }

// Meet is one meet.
func Meet(id int64) Key { return Key{Resource: ResourceMeets, ID: id} }

// MeetResults is the result list of one meet.
func MeetResults(id int64) Key { return Key{Resource: ResourceMeets, ID: id, Sub: SubResults} }

// TopTimes is the fastest-times aggregate.
func TopTimes() Key { return Key{Resource: ResourceTopTimes} }

// String renders the key as a path, e.g. "meets/3/results".
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Resource)
	if k.ID != 0 {
		b.WriteByte('/')
		b.WriteString(strconv.FormatInt(k.ID, 10))
	}
	if k.Sub != "" {
		b.WriteByte('/')
		b.WriteString(k.Sub)
	}
	return b.String()
}

// HasPrefix reports whether k lies under p. Zero fields of p match anything,
// so Meets() prefixes Meet(3) and MeetResults(3).
func (k Key) HasPrefix(p Key) bool {
	if k.Resource != p.Resource {
		return false
	}
	if p.ID != 0 && p.ID != k.ID {
		return false
	}
	return p.Sub == "" || p.Sub == k.Sub
}

// Selector picks keys for invalidation.
type Selector struct {
	key    Key
	prefix bool
}

// Exact selects key only.
func Exact(k Key) Selector { return Selector{key: k} }

// Prefix selects key and every key beneath it.
func Prefix(k Key) Selector { return Selector{key: k, prefix: true} }

// Match reports whether k is selected.
func (s Selector) Match(k Key) bool {
	if s.prefix {
		return k.HasPrefix(s.key)
	}
	return k == s.key
}

// String renders the selector, with a trailing "*" for prefixes.
func (s Selector) String() string {
	if s.prefix {
		return s.key.String() + "/*"
	}
	return s.key.String()
}
