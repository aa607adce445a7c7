// Package availability finds common free meeting slots for a group of
// attendees.
//
// The slot finder consumes already-fetched busy blocks and a working-hours
// policy and walks each day of the search horizon with a moving cursor,
// emitting a candidate whenever the gap before the next busy block (or before
// the end of the working day) fits the requested duration. It never talks to a
// calendar provider itself; callers fetch and normalize busy time first.
package availability
