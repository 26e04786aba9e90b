package notifications

import "testing"

func serverList() []Record {
	return []Record{
		{ID: "n-1", Kind: "trip_cancellation", ServerRead: false},
		{ID: "n-2", Kind: "booking_confirmation", ServerRead: true},
		{ID: "n-3", ServerRead: false},
	}
}

func TestReduceCustomerUsesLocalReadSet(t *testing.T) {
	snap := Snapshot{Read: []string{"n-2"}}

	items, unread := Reduce(serverList(), snap, RoleCustomer)

	if len(items) != 3 {
		t.Fatalf("Expected 3 visible items, got %d", len(items))
	}
	// n-2 is server-read but what counts for a customer is the local set.
	byID := indexItems(items)
	if !byID["n-2"].IsRead {
		t.Error("Expected n-2 read via local set")
	}
	if byID["n-1"].IsRead || byID["n-3"].IsRead {
		t.Error("Expected n-1 and n-3 unread for customer")
	}
	if unread != 2 {
		t.Errorf("Expected 2 unread, got %d", unread)
	}
}

func TestReduceCustomerIgnoresServerFlag(t *testing.T) {
	// Server says read, local set does not: customer sees unread.
	items, unread := Reduce([]Record{{ID: "n-2", ServerRead: true}}, Snapshot{}, RoleCustomer)

	if items[0].IsRead {
		t.Error("Expected server flag ignored for customer")
	}
	if unread != 1 {
		t.Errorf("Expected 1 unread, got %d", unread)
	}
}

func TestReduceManagerMirrorsServerFlag(t *testing.T) {
	// The local read set must not be consulted for managers, even when it
	// contains the id.
	snap := Snapshot{Read: []string{"n-1", "n-2", "n-3"}}

	items, unread := Reduce(serverList(), snap, RoleManager)

	byID := indexItems(items)
	if byID["n-1"].IsRead || byID["n-3"].IsRead {
		t.Error("Expected server-unread items to stay unread for manager")
	}
	if !byID["n-2"].IsRead {
		t.Error("Expected server-read item to be read for manager")
	}
	if unread != 2 {
		t.Errorf("Expected 2 unread, got %d", unread)
	}
}

func TestReduceStaffMirrorsServerFlag(t *testing.T) {
	items, _ := Reduce(serverList(), Snapshot{Read: []string{"n-1"}}, RoleStaff)

	if indexItems(items)["n-1"].IsRead {
		t.Error("Expected staff read status to mirror the server flag")
	}
}

func TestReduceDeletionPermanence(t *testing.T) {
	snap := Snapshot{Deleted: []string{"n-1"}}

	// The server still reports n-1; it must stay excluded.
	items, unread := Reduce(serverList(), snap, RoleCustomer)

	if len(items) != 2 {
		t.Fatalf("Expected 2 visible items, got %d", len(items))
	}
	for _, item := range items {
		if item.ID == "n-1" {
			t.Error("Expected deleted id excluded from output")
		}
	}
	if unread != 2 {
		t.Errorf("Expected deleted item excluded from unread count, got %d", unread)
	}
}

func TestReduceDefaultsKind(t *testing.T) {
	items, _ := Reduce([]Record{{ID: "n-9"}}, Snapshot{}, RoleCustomer)

	if items[0].Kind != KindTripCancellation {
		t.Errorf("Expected default kind '%s', got '%s'", KindTripCancellation, items[0].Kind)
	}
}

func TestReduceEmptyList(t *testing.T) {
	items, unread := Reduce(nil, Snapshot{Read: []string{"x"}}, RoleCustomer)

	if len(items) != 0 || unread != 0 {
		t.Errorf("Expected empty result, got %d items, %d unread", len(items), unread)
	}
}

func indexItems(items []Item) map[string]Item {
	byID := make(map[string]Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return byID
}
