package events

import "testing"

func TestMutationJSONRoundTrip(t *testing.T) {
	msg := NewMutation("session-1", EntityRevenue, "created", "rev-42")
	if msg.EventID == "" {
		t.Fatalf("missing event id")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := MutationFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.EventID != msg.EventID || got.Origin != "session-1" || got.Entity != EntityRevenue || got.Op != "created" || got.RecordID != "rev-42" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestMutationFromJSONRejectsGarbage(t *testing.T) {
	if _, err := MutationFromJSON([]byte("{not json")); err == nil {
		t.Fatalf("expected error")
	}
}
