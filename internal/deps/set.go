package deps

import (
	"encoding/json"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Set is an immutable, ordered collection of unique dependency names.
// The zero value is the empty set.
type Set struct {
	names []string
	index map[string]struct{}
}

// NewSet builds a Set keeping the first occurrence of every name.
func NewSet(names ...string) Set {
	s := Set{index: make(map[string]struct{}, len(names))}
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := s.index[name]; ok {
			continue
		}
		s.index[name] = struct{}{}
		s.names = append(s.names, name)
	}
	return s
}

// Has reports whether name is a declared dependency.
func (s Set) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Names returns a copy of the names in manifest order.
func (s Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s Set) Len() int {
	return len(s.names)
}

// Key is the canonical serialization of the set: the sorted names encoded as
// a JSON array. Two sets with the same members have the same key regardless
// of order.
func (s Set) Key() string {
	sorted := s.Names()
	sort.Strings(sorted)
	if sorted == nil {
		sorted = []string{}
	}
	data, _ := json.Marshal(sorted)
	return string(data)
}

// Fingerprint hashes Key.
func (s Set) Fingerprint() uint64 {
	return xxhash.Sum64String(s.Key())
}

// Equal compares membership, ignoring order.
func (s Set) Equal(other Set) bool {
	return s.Key() == other.Key()
}
