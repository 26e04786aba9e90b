package notifications

import "time"

// Role determines how unread status is derived.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleManager  Role = "manager"
	RoleStaff    Role = "staff"
)

// KindTripCancellation is the default record kind when the server omits one.
const KindTripCancellation = "trip_cancellation"

// Record is one server-reported notification. The core does not own these;
// it only classifies and filters a list handed to it.
type Record struct {
	ID            string
	Kind          string
	Message       string
	CreatedAt     time.Time
	ServerRead    bool
	PassengerName string
	SeatNumber    string
	Amount        float64
	TripID        string
	BookingID     string
}

// Item is a record annotated with the role-resolved read status.
type Item struct {
	Record
	IsRead bool
}

// Snapshot is the persisted local state: two id sets, rewritten in full on
// every mutation.
type Snapshot struct {
	Read    []string `json:"read"`
	Deleted []string `json:"deleted"`
}

// Reduce merges the server list with the local snapshot: deleted ids are
// filtered out, each remaining record is annotated with its read status per
// the role rule, and the unread count is returned alongside.
func Reduce(serverList []Record, snap Snapshot, role Role) ([]Item, int) {
	read := toSet(snap.Read)
	deleted := toSet(snap.Deleted)

	items := make([]Item, 0, len(serverList))
	unread := 0
	for _, record := range serverList {
		if _, gone := deleted[record.ID]; gone {
			continue
		}
		if record.Kind == "" {
			record.Kind = KindTripCancellation
		}
		item := Item{Record: record, IsRead: isRead(record, read, role)}
		if !item.IsRead {
			unread++
		}
		items = append(items, item)
	}
	return items, unread
}

// isRead resolves read status. Managers and staff trust the server flag
// because their server marks notifications read on fetch; customers have no
// such server support and rely on the local set. New roles take the
// server-flag path.
func isRead(record Record, read map[string]struct{}, role Role) bool {
	if role == RoleCustomer {
		_, ok := read[record.ID]
		return ok
	}
	return record.ServerRead
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
