// Package intset compresses multisets of integer labels into minimal lists
// of contiguous inclusive ranges. Host applications in the FEMFAT toolchain
// address nodes and groups by numeric label, and most of their batch
// interfaces accept spans rather than individual labels, so compressing a
// label list is what turns O(labels) host calls into O(ranges).
package intset

import "sort"

// Range is an inclusive span of integer labels with From <= To.
type Range struct {
	From int
	To   int
}

// Len reports how many labels the range covers.
func (r Range) Len() int { return r.To - r.From + 1 }

// Contains reports whether v lies within the range.
func (r Range) Contains(v int) bool { return r.From <= v && v <= r.To }

// Compress reduces labels to the minimal ordered list of contiguous ranges.
// Duplicates are discarded and input order is irrelevant: the result is
// sorted ascending by From, ranges are pairwise disjoint, and no two
// neighbours can be merged further. An empty input yields nil.
func Compress(labels []int) []Range {
	if len(labels) == 0 {
		return nil
	}

	sorted := make([]int, len(labels))
	copy(sorted, labels)
	sort.Ints(sorted)

	var out []Range
	cur := Range{From: sorted[0], To: sorted[0]}
	for _, v := range sorted[1:] {
		switch {
		case v == cur.To || v == cur.To+1:
			cur.To = v
		default:
			out = append(out, cur)
			cur = Range{From: v, To: v}
		}
	}
	return append(out, cur)
}

// Expand flattens ranges back into the sorted list of covered labels.
// It is the inverse of Compress for canonical inputs: Compress(Expand(rs))
// returns rs unchanged.
func Expand(ranges []Range) []int {
	var out []int
	for _, r := range ranges {
		for v := r.From; v <= r.To; v++ {
			out = append(out, v)
		}
	}
	return out
}

// Total reports the number of labels covered by all ranges combined.
func Total(ranges []Range) int {
	n := 0
	for _, r := range ranges {
		n += r.Len()
	}
	return n
}
