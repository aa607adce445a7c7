// Package scheduling runs the availability and conflict engines against live
// calendar data.
//
// A Source supplies events and busy blocks for calendar owners. The Google
// Calendar client, ICS feeds and the Redis busy cache all implement it.
// Service fixes the time windows relative to an injectable clock, fetches the
// data and hands it to availability.FindSlots or conflict.FindConflicts.
package scheduling
