package kafka

import (
	"encoding/json"
	"testing"
)

func TestNewOrderEvent(t *testing.T) {
	event := NewOrderEvent(EventTypeOrderCreated, "ORD-1", "user-1", "Pending", map[string]interface{}{
		"total": "23",
	})

	if event.EventType != EventTypeOrderCreated {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	if event.OrderID != "ORD-1" || event.UserID != "user-1" || event.Status != "Pending" {
		t.Fatalf("unexpected event fields: %+v", event)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("timestamp must be set")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["event_type"] != "order.created" {
		t.Fatalf("unexpected wire event type: %v", decoded["event_type"])
	}
	meta, ok := decoded["metadata"].(map[string]interface{})
	if !ok || meta["total"] != "23" {
		t.Fatalf("unexpected metadata: %v", decoded["metadata"])
	}
}
