// Package feed implements cursor-based incremental loading for postings,
// creators and notifications lists.
package feed

// Identifiable is anything listed by a stable identity.
type Identifiable interface {
	Key() string
}

// MergeAndDedupe appends incoming to existing, keeping the first occurrence of
// every key. The result never aliases existing's backing array.
func MergeAndDedupe[T Identifiable](existing, incoming []T) []T {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]T, 0, len(existing)+len(incoming))
	for _, list := range [][]T{existing, incoming} {
		for _, item := range list {
			key := item.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
