// Package bridge provides a typed in-process publish/subscribe layer for
// transport-level conditions.
//
// The realtime core never throws transport faults at presentation code.
// Instead every fault, warning, and informational condition is converted into
// a Signal and published on a Bridge. UI collaborators subscribe to the
// category they care about; publishing with zero subscribers is a safe no-op.
//
// The category set is closed:
//   - socket-error:   faults the user should see (reconnect exhausted, limits)
//   - socket-warning: transient conditions (connection lost, room timeout)
//   - socket-info:    advisory notices (room joined, timeout policy)
//   - socket-blocked: the terminal blocked-user condition
//
// Usage:
//
//	b := bridge.New()
//	cancel := b.Subscribe(bridge.CategoryWarning, func(s bridge.Signal) {
//		log.Printf("warning: %s (%s)", s.Message, s.Type)
//	})
//	defer cancel()
//
// Handlers are invoked synchronously on the publishing goroutine, outside the
// bridge's internal lock, so a handler may itself publish or unsubscribe.
package bridge
