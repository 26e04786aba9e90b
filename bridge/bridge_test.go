package bridge

import "testing"

func TestPublishWithoutSubscribers(t *testing.T) {
	b := New()

	// Must not panic or block.
	b.Publish(Warning("connection-lost", "connection lost", nil))
	b.Publish(Signal{Category: CategoryBlocked, Type: "user-blocked"})
}

func TestSubscribeReceivesSignal(t *testing.T) {
	b := New()

	var got []Signal
	b.Subscribe(CategoryWarning, func(s Signal) {
		got = append(got, s)
	})

	b.Publish(Warning("room-timeout-warning", "room expires soon", map[string]any{"tripId": "trip-42"}))

	if len(got) != 1 {
		t.Fatalf("Expected 1 signal, got %d", len(got))
	}
	if got[0].Type != "room-timeout-warning" {
		t.Errorf("Expected type 'room-timeout-warning', got '%s'", got[0].Type)
	}
	if got[0].Data["tripId"] != "trip-42" {
		t.Errorf("Expected tripId 'trip-42', got %v", got[0].Data["tripId"])
	}
}

func TestCategoryIsolation(t *testing.T) {
	b := New()

	warnings := 0
	errors := 0
	b.Subscribe(CategoryWarning, func(Signal) { warnings++ })
	b.Subscribe(CategoryError, func(Signal) { errors++ })

	b.Publish(Warning("connection-lost", "", nil))
	b.Publish(Warning("connection-lost", "", nil))
	b.Publish(Error("reconnect-failed", "", nil))

	if warnings != 2 {
		t.Errorf("Expected 2 warnings, got %d", warnings)
	}
	if errors != 1 {
		t.Errorf("Expected 1 error, got %d", errors)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()

	count := 0
	cancel := b.Subscribe(CategoryInfo, func(Signal) { count++ })

	b.Publish(Info("room-joined", "", nil))
	cancel()
	b.Publish(Info("room-joined", "", nil))
	cancel() // second call must be harmless

	if count != 1 {
		t.Errorf("Expected 1 delivery after unsubscribe, got %d", count)
	}
}

func TestMultipleSubscribersSameCategory(t *testing.T) {
	b := New()

	first := 0
	second := 0
	b.Subscribe(CategoryBlocked, func(Signal) { first++ })
	b.Subscribe(CategoryBlocked, func(Signal) { second++ })

	b.Publish(Blocked("user-blocked", "account blocked", nil))

	if first != 1 || second != 1 {
		t.Errorf("Expected both subscribers to fire once, got %d and %d", first, second)
	}
}
