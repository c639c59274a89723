package memory

import "sort"

// TrimmedMarker prefixes an entry whose head was cut to fit the window.
const TrimmedMarker = "[earlier part trimmed] "

// Window returns the system entry followed by the longest run of newest
// entries whose combined cost, system entry included, fits maxTokens.
// Older entries are dropped first; the system entry is always kept even if
// it alone exceeds the budget. entries is not modified.
//
// The newest entry is the pending prompt. When it does not fit on its own
// it is cut to the tail that does, marked with TrimmedMarker, so the model
// still sees the question that ends it.
func Window(entries []Entry, maxTokens int, c Counter) []Entry {
	if len(entries) == 0 {
		return nil
	}

	used := Cost(c, entries[0])
	start := len(entries)
	for i := len(entries) - 1; i >= 1; i-- {
		cost := Cost(c, entries[i])
		if used+cost > maxTokens {
			break
		}
		used += cost
		start = i
	}

	out := make([]Entry, 0, 1+len(entries)-start)
	out = append(out, entries[0])
	if start == len(entries) && len(entries) > 1 {
		if tail, ok := clipTail(entries[len(entries)-1], maxTokens-used, c); ok {
			out = append(out, tail)
		}
		return out
	}
	return append(out, entries[start:]...)
}

// clipTail returns the longest tail of e that, marked, costs at most budget.
// It reports false when not even one rune fits.
func clipTail(e Entry, budget int, c Counter) (Entry, bool) {
	runes := []rune(e.Text)
	clipped := func(n int) Entry {
		return Entry{Kind: e.Kind, Text: TrimmedMarker + string(runes[len(runes)-n:])}
	}

	// Smallest tail length that overflows; cost grows with length.
	over := sort.Search(len(runes)+1, func(n int) bool {
		return Cost(c, clipped(n)) > budget
	})
	if over <= 1 {
		return Entry{}, false
	}
	return clipped(over - 1), true
}

// TotalCost returns the budgeted cost of entries.
func TotalCost(entries []Entry, c Counter) int {
	total := 0
	for _, e := range entries {
		total += Cost(c, e)
	}
	return total
}
