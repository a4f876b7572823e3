package points

// UniquePoints deduplicates by key, keeping the first occurrence in order.
func UniquePoints(list []Point) []Point {
	seen := make(KeySet, len(list))
	result := make([]Point, 0, len(list))
	for _, p := range list {
		key := p.Key()
		if seen.Has(key) {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, p)
	}
	return result
}

// FindOriginal returns the first point whose full key equals key. Lookups never
// fall back to a name-only match.
func FindOriginal(list []Point, key PointKey) (Point, bool) {
	for _, p := range list {
		if p.Key() == key {
			return p, true
		}
	}
	return Point{}, false
}

// SelectByKeys returns the points whose key is selected, in list order.
func SelectByKeys(list []Point, keys KeySet) []Point {
	var result []Point
	for _, p := range list {
		if keys.Has(p.Key()) {
			result = append(result, p)
		}
	}
	return result
}
