package farm

import (
	"encoding/json"
	"testing"
)

func TestMsgToPlayerMarshalBareKinds(t *testing.T) {
	cases := []struct {
		msg  MsgToPlayer
		want string
	}{
		{Idled(), `"Idled"`},
		{Moved(), `"Moved"`},
		{NoHarvest(), `"NoHarvest"`},
		{Planted(), `"Planted"`},
	}
	for _, c := range cases {
		got, err := json.Marshal(c.msg)
		if err != nil {
			t.Fatalf("Marshal(%v) error: %v", c.msg, err)
		}
		if string(got) != c.want {
			t.Fatalf("Marshal(%v) = %s, want %s", c.msg, got, c.want)
		}
	}
}

func TestMsgToPlayerMarshalBlockedBy(t *testing.T) {
	got, err := json.Marshal(BlockedBy(BlockedByWallbush))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `{"BlockedBy":"Wallbush"}`
	if string(got) != want {
		t.Fatalf("Marshal(BlockedBy) = %s, want %s", got, want)
	}
}

func TestMsgToPlayerMarshalHarvested(t *testing.T) {
	var decoded map[string]map[string]interface{}
	got, err := json.Marshal(Harvested(Grains, 3))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	payload, ok := decoded["Harvested"]
	if !ok {
		t.Fatalf("expected a Harvested key, got %s", got)
	}
	if payload["harvest"] != string(Grains) {
		t.Fatalf("harvest = %v, want Grains", payload["harvest"])
	}
	if payload["volume"] != float64(3) {
		t.Fatalf("volume = %v, want 3", payload["volume"])
	}
}
