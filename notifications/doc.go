// Package notifications maintains the locally persisted read/deleted state
// that is merged with the server's notification list.
//
// The merge itself is a pure function: Reduce takes the server list, a
// Snapshot of the two local id sets, and the viewer's role, and returns the
// visible items plus an unread count. It has no storage or transport
// dependency, so the role rules are unit-testable in isolation. The Store
// wraps Reduce with the owned sets and a Persistence adapter that rewrites
// the full {read, deleted} record on every mutation.
//
// Read semantics are role-dependent: customers derive unread status from the
// local read set, while managers and staff mirror the server-reported flag
// (their server marks notifications read as a side effect of fetching).
// Local reads are still recorded for those roles, they just do not feed the
// unread count. Deleted ids are excluded from all output permanently, even
// if the server keeps re-reporting them.
//
// Mutations are local-only; the store never calls back to the server.
package notifications
