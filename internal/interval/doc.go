// Package interval defines the time interval value used by the scheduling
// engine, together with the overlap and ordering predicates that the slot
// finder and the conflict detector share.
//
// Intervals are half-open: an interval covers [Start, End). Two intervals that
// only touch at an endpoint do not overlap.
//
//	a, _ := interval.New(nine, ten)
//	b, _ := interval.New(ten, eleven)
//	interval.Overlaps(a, b) // false
package interval
