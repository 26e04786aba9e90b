// Package socket manages the single persistent channel between a portal
// client and the booking server.
//
// The socket package implements:
//   - One logical WebSocket connection per Manager, with an explicit
//     state machine (Disconnected, Connecting, Connected, Reconnecting,
//     Blocked)
//   - The authentication handshake, with credential sanitising so a missing
//     or malformed token is omitted from the payload rather than sent as a
//     sentinel string
//   - A bounded reconnection policy for network faults and a single damped
//     reconnect for server-initiated disconnects
//   - A periodic heartbeat while connected
//   - Raw event dispatch with replace-on-register listener semantics
//
// Message Protocol:
//
// Frames are JSON envelopes of the form {event: "...", data: {...}}. The
// first frame after dialing carries the auth payload. Inbound payloads are
// decoded leniently: missing or malformed fields degrade to zero values and
// are never surfaced as errors.
//
// Connection Lifecycle:
//
//  1. Connect dials and sends the auth frame; re-entrant calls are no-ops
//  2. A read loop dispatches inbound events to registered handlers
//  3. Network faults trigger up to ReconnectAttempts retries at a fixed delay
//  4. A server-initiated close schedules exactly one delayed reconnect
//  5. A user-blocked event moves the manager to the terminal Blocked state;
//     only ClearBlock releases it
//  6. Disconnect stops the heartbeat, cancels pending timers, and tears the
//     channel down; it is safe to call when already disconnected
//
// Managers are constructed explicitly and passed by reference to consumers;
// there is no package-level singleton, so tests can run several independent
// instances side by side.
package socket
