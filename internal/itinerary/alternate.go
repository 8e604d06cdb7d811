package itinerary

import "sort"

// Alternate returns the deterministic secondary ordering: grouped by category
// (lexical), then by priority descending within a category. Input order breaks ties.
func Alternate(dests []Destination) []Destination {
	out := copyDestinations(dests)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Priority > out[j].Priority
	})
	return out
}
