package rolewatch

// Diff compares two snapshots of an assignment relation by item key.
// added holds the items of after missing from before, removed the items of
// before missing from after. Both keep the order of first appearance and never
// contain the same key twice.
func Diff(before, after []Item) (added, removed []Item) {
	added = difference(after, keySet(before))
	removed = difference(before, keySet(after))
	return added, removed
}

// Unique drops repeated keys, keeping the first occurrence.
func Unique(items []Item) []Item {
	return difference(items, nil)
}

// Keys returns the key of every item, in order.
func Keys(items []Item) []string {
	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, it.Key())
	}
	return keys
}

func keySet(items []Item) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it.Key()] = struct{}{}
	}
	return set
}

func difference(items []Item, exclude map[string]struct{}) []Item {
	var out []Item
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		k := it.Key()
		if _, skip := exclude[k]; skip {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
