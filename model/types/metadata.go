package types

import "sort"

// Metadata is a string-keyed collection of tagged values. Insertion order is
// irrelevant; merges are last-write-wins per key.
type Metadata map[string]Value

// NewMetadata creates an empty metadata collection.
func NewMetadata() Metadata { return Metadata{} }

// Merge copies every entry of src into m, overwriting existing keys.
func (m Metadata) Merge(src Metadata) {
	for k, v := range src {
		m[k] = v
	}
}

// MergeNamespaced merges src twice: once plain (last-write-wins) and once
// under "<prefix>.<key>" so that composites retain full provenance of which
// child contributed which entry.
func (m Metadata) MergeNamespaced(prefix string, src Metadata) {
	for k, v := range src {
		m[k] = v
		m[prefix+"."+k] = v
	}
}

// Clone returns a shallow copy (values are immutable, so shallow suffices).
func (m Metadata) Clone() Metadata {
	ret := make(Metadata, len(m))
	for k, v := range m {
		ret[k] = v
	}
	return ret
}

// Keys returns all keys sorted lexicographically, for deterministic output.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
