package socket

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"
)

// Event names on the wire. Outbound: auth, join-trip, leave-trip, ping.
// The rest are inbound.
const (
	EventAuth              = "auth"
	EventJoinTrip          = "join-trip"
	EventLeaveTrip         = "leave-trip"
	EventPing              = "ping"
	EventPong              = "pong"
	EventConnectionWarning = "connection-warning"
	EventRoomWarning       = "room-warning"
	EventRoomJoined        = "room-joined"
	EventUserBlocked       = "user-blocked"
	EventBookingUpdated    = "booking-updated"
	EventNewBooking        = "new-booking"
)

// BookingUpdate is the inbound seat-availability event for a trip room.
type BookingUpdate struct {
	TripID         string
	SeatsAvailable int
	AssignedSeats  []int
	BookingID      string
	Timestamp      time.Time
}

// NewBooking is the inbound cross-trip booking-activity event.
type NewBooking struct {
	BookingID   string
	TripID      string
	UserEmail   string
	TotalAmount float64
	Timestamp   time.Time
}

// RoomJoined acknowledges a join-trip and carries the room's idle timeout.
type RoomJoined struct {
	TripID         string
	TimeoutMinutes int
}

// BlockedNotice is the terminal user-blocked event.
type BlockedNotice struct {
	Message       string
	Reason        string
	RemainingTime int
}

// Payload decoding is deliberately lenient: the server is an external
// collaborator and partial payloads must degrade to zero values instead of
// failing across the component boundary.

// DecodeBookingUpdate extracts a BookingUpdate from a raw payload.
func DecodeBookingUpdate(data []byte) BookingUpdate {
	update := BookingUpdate{
		TripID:         gjson.GetBytes(data, "tripId").String(),
		SeatsAvailable: int(gjson.GetBytes(data, "seatsAvailable").Int()),
		BookingID:      gjson.GetBytes(data, "bookingId").String(),
		Timestamp:      decodeTimestamp(gjson.GetBytes(data, "timestamp")),
	}
	for _, seat := range gjson.GetBytes(data, "assignedSeats").Array() {
		update.AssignedSeats = append(update.AssignedSeats, int(seat.Int()))
	}
	return update
}

// DecodeNewBooking extracts a NewBooking from a raw payload.
func DecodeNewBooking(data []byte) NewBooking {
	return NewBooking{
		BookingID:   gjson.GetBytes(data, "bookingId").String(),
		TripID:      gjson.GetBytes(data, "tripId").String(),
		UserEmail:   gjson.GetBytes(data, "userEmail").String(),
		TotalAmount: gjson.GetBytes(data, "totalAmount").Float(),
		Timestamp:   decodeTimestamp(gjson.GetBytes(data, "timestamp")),
	}
}

// DecodeRoomJoined extracts a RoomJoined acknowledgment.
func DecodeRoomJoined(data []byte) RoomJoined {
	return RoomJoined{
		TripID:         gjson.GetBytes(data, "tripId").String(),
		TimeoutMinutes: int(gjson.GetBytes(data, "timeoutMinutes").Int()),
	}
}

// DecodeBlocked extracts a BlockedNotice.
func DecodeBlocked(data []byte) BlockedNotice {
	return BlockedNotice{
		Message:       gjson.GetBytes(data, "message").String(),
		Reason:        gjson.GetBytes(data, "reason").String(),
		RemainingTime: int(gjson.GetBytes(data, "remainingTime").Int()),
	}
}

// decodeMessage extracts the user-facing message from a warning payload.
func decodeMessage(data []byte) string {
	return gjson.GetBytes(data, "message").String()
}

// decodeDataMap turns a raw payload into the generic map carried on bridge
// signals. Malformed payloads yield nil.
func decodeDataMap(data []byte) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

// decodeTimestamp accepts either an RFC 3339 string or unix milliseconds,
// matching the two formats the server has been observed to emit.
func decodeTimestamp(result gjson.Result) time.Time {
	switch result.Type {
	case gjson.String:
		if ts, err := time.Parse(time.RFC3339, result.String()); err == nil {
			return ts
		}
	case gjson.Number:
		return time.UnixMilli(result.Int())
	}
	return time.Time{}
}
