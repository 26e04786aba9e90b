// Package rooms tracks per-trip broadcast-group subscriptions on top of an
// established channel.
//
// A trip room is the server-side broadcast group for one trip's seat and
// booking events. The Tracker guarantees:
//   - Enter is idempotent: a trip id appears at most once in the active set,
//     and rapid repeated calls emit exactly one join signal
//   - Tracking is optimistic: the id is recorded before any server
//     acknowledgment, so there is no window for duplicate joins
//   - A join acknowledgment arms a one-shot idle-timeout warning timer one
//     minute before the server would evict the client; re-acknowledgment
//     re-arms the timer instead of stacking a second one
//   - A late acknowledgment arriving after Leave is a harmless no-op
//   - Reset clears all subscriptions and timers; it is invoked on connection
//     loss, after which rejoining is the caller's responsibility
//
// The warning timer only publishes a socket-warning signal; eviction itself
// is server-driven and the tracker never leaves a room on its own.
package rooms
