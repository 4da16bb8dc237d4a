package model

import (
	"cmp"
	"slices"

	"golang.org/x/exp/constraints"
)

// Series is a time series of values
type Series[T constraints.Ordered] []T

// Values returns the values of the series
func (s Series[T]) Values() []T {
	return s
}

// Length returns the number of values in the series
func (s Series[T]) Length() int {
	return len(s)
}

// Timed is an element keyed by its bar timestamp
type Timed interface {
	Key() int64
}

// MergeByTime folds item into an ascending, duplicate-free series.
// Same key as the last element replaces it (bar still forming), a newer key appends.
// An older key is placed at its sorted position, replacing an element with the same key.
// The result never holds more than max elements (max <= 0 means unbounded); the oldest go first.
func MergeByTime[S ~[]E, E Timed](s S, item E, max int) S {
	n := len(s)
	switch {
	case n == 0 || item.Key() > s[n-1].Key():
		s = append(s, item)
	case item.Key() == s[n-1].Key():
		s[n-1] = item
	default:
		i, found := slices.BinarySearchFunc(s, item.Key(), func(e E, key int64) int {
			return cmp.Compare(e.Key(), key)
		})
		if found {
			s[i] = item
		} else {
			s = slices.Insert(s, i, item)
		}
	}
	return TrimOldest(s, max)
}

// TrimOldest drops elements from the front until len(s) <= max
func TrimOldest[S ~[]E, E any](s S, max int) S {
	if max > 0 && len(s) > max {
		return s[len(s)-max:]
	}
	return s
}

// PrependBounded puts item first and drops from the tail until len <= max
func PrependBounded[S ~[]E, E any](s S, item E, max int) S {
	s = slices.Insert(s, 0, item)
	if max > 0 && len(s) > max {
		clear(s[max:])
		s = s[:max]
	}
	return s
}
