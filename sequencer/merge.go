package sequencer

import "time"

// MergeByID overlays pushed updates onto a fetched baseline, keyed by record
// id. Updates are applied in arrival order, so the last update for an id
// wins. Records only in the baseline are kept untouched; records only in the
// updates are appended. The reducer performs no I/O.
func MergeByID[T any, K comparable](baseline, updates []T, key func(T) K) []T {
	merged := make([]T, len(baseline))
	copy(merged, baseline)

	index := make(map[K]int, len(merged))
	for i, record := range merged {
		index[key(record)] = i
	}

	for _, update := range updates {
		k := key(update)
		if i, ok := index[k]; ok {
			merged[i] = update
			continue
		}
		index[k] = len(merged)
		merged = append(merged, update)
	}
	return merged
}

// MergeAggregate resolves the dual-source staleness problem for a single
// aggregate resource (e.g. a call campaign header) that both a query path and
// a push path produce: whichever side carries the later updated_at wins, so a
// momentarily stale push can never regress a more advanced local status. An
// absent side loses. Ties keep the local version.
func MergeAggregate[T any](local, pushed *T, updatedAt func(*T) time.Time) *T {
	if local == nil {
		return pushed
	}
	if pushed == nil {
		return local
	}
	if updatedAt(pushed).After(updatedAt(local)) {
		return pushed
	}
	return local
}
