package util

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
)

func ConcatIter[A any](iter ...iter.Seq[A]) iter.Seq[A] {
	return func(yield func(A) bool) {
		for _, thisIter := range iter {
			for v := range thisIter {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// JoinString is strings.Join for anything that can be printed
func JoinString[S fmt.Stringer](elems []S, sep string) string {
	return JoinSeq(slices.Values(elems), sep)
}

func JoinSeq[S fmt.Stringer](elems iter.Seq[S], sep string) string {
	sb := &strings.Builder{}
	first := true
	for elem := range elems {
		if !first {
			sb.WriteString(sep)
		}
		first = false
		sb.WriteString(elem.String())
	}
	return sb.String()
}

// SortedKeys returns the keys of m in ascending order, so that iterating
// over a map is deterministic
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
