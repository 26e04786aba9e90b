// Package seats reconciles REST-sourced seat snapshots with the stream of
// inbound seat-update events for a trip.
//
// A Reconciler is created per trip-viewing context. It is seeded from a
// snapshot (the REST response shown on page load) and thereafter applies
// booking-updated events:
//   - events for a different trip id are ignored
//   - redelivered events (same bookingId + timestamp composite key) change
//     nothing, so at-most-once delivery with replays stays coherent
//   - the observer callback fires exactly once per actual count change
//   - the derived available-seat-number list is recomputed fresh on every
//     read, never patched incrementally, so it cannot drift
//   - once any authoritative event has been applied, later snapshot values
//     are ignored (last writer wins by logical source, not arrival order)
//
// The Feed is the cross-trip booking-activity list the dashboards render:
// most recent first, deduplicated by booking id, capped at a fixed size.
package seats
