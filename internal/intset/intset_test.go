package intset

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompress(t *testing.T) {
	tests := []struct {
		name   string
		labels []int
		want   []Range
	}{
		{
			name:   "empty",
			labels: nil,
			want:   nil,
		},
		{
			name:   "single element",
			labels: []int{42},
			want:   []Range{{42, 42}},
		},
		{
			name:   "unordered with gap",
			labels: []int{101, 102, 205, 103},
			want:   []Range{{101, 103}, {205, 205}},
		},
		{
			name:   "duplicates collapse",
			labels: []int{5, 5, 6, 6, 7, 7},
			want:   []Range{{5, 7}},
		},
		{
			name:   "multiple runs",
			labels: []int{10, 11, 12, 1, 2, 3, 4, 17, 18, 20},
			want:   []Range{{1, 4}, {10, 12}, {17, 18}, {20, 20}},
		},
		{
			name:   "negative values",
			labels: []int{-3, -2, -1, 1},
			want:   []Range{{-3, -1}, {1, 1}},
		},
		{
			name:   "all isolated",
			labels: []int{2, 4, 6, 8},
			want:   []Range{{2, 2}, {4, 4}, {6, 6}, {8, 8}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compress(tt.labels)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Compress(%v) mismatch (-want +got):\n%s", tt.labels, diff)
			}
		})
	}
}

func TestCompressDoesNotMutateInput(t *testing.T) {
	labels := []int{9, 3, 7}
	Compress(labels)
	want := []int{9, 3, 7}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}

func TestCompressOrderIndependence(t *testing.T) {
	labels := []int{4, 8, 15, 16, 23, 42, 5, 6, 7}
	want := Compress(labels)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := make([]int, len(labels))
		copy(shuffled, labels)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if diff := cmp.Diff(want, Compress(shuffled)); diff != "" {
			t.Fatalf("shuffle %d changed output (-want +got):\n%s", i, diff)
		}
	}
}

// Compressed output must be canonical: sorted, disjoint, and maximally
// merged. Re-compressing the flattened labels must be a fixed point.
func TestCompressCanonicalForm(t *testing.T) {
	inputs := [][]int{
		{1},
		{1, 3, 5, 7, 9},
		{100, 101, 102, 103, 200, 201, 300},
		{-10, -9, -8, 0, 1, 2},
		{7, 7, 7, 7},
	}

	for _, labels := range inputs {
		got := Compress(labels)
		for i, r := range got {
			if r.From > r.To {
				t.Errorf("Compress(%v): range %d inverted: %+v", labels, i, r)
			}
			if i == 0 {
				continue
			}
			prev := got[i-1]
			if prev.To+1 >= r.From {
				t.Errorf("Compress(%v): ranges %d and %d overlap or touch: %+v %+v",
					labels, i-1, i, prev, r)
			}
		}

		again := Compress(Expand(got))
		if diff := cmp.Diff(got, again); diff != "" {
			t.Errorf("Compress(%v) not idempotent (-first +second):\n%s", labels, diff)
		}
	}
}

func TestExpand(t *testing.T) {
	got := Expand([]Range{{1, 4}, {10, 12}})
	want := []int{1, 2, 3, 4, 10, 11, 12}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Expand mismatch (-want +got):\n%s", diff)
	}

	if Expand(nil) != nil {
		t.Error("Expand(nil) should be nil")
	}
}

func TestTotal(t *testing.T) {
	if got := Total([]Range{{1, 4}, {20, 20}}); got != 5 {
		t.Errorf("Total = %d, want 5", got)
	}
	if got := Total(nil); got != 0 {
		t.Errorf("Total(nil) = %d, want 0", got)
	}
}
