package farm

import "testing"

func TestUnmarshalAction(t *testing.T) {
	cases := []struct {
		name string
		line string
		want Action
	}{
		{"idle", `"Idle"`, Action{Kind: ActionIdle}},
		{"harvest", `"Harvest"`, Action{Kind: ActionHarvest}},
		{"till", `"Till"`, Action{Kind: ActionTill}},
		{"move", `{"Move":{"direction":"Left"}}`, Action{Kind: ActionMove, Direction: Left}},
		{"plant", `{"Plant":{"seed":"Bush"}}`, Action{Kind: ActionPlant, Seed: SeedBush}},
		{"trade", `{"Trade":{"seed":"Cane","volume":3}}`, Action{Kind: ActionTrade, Seed: SeedCane, Volume: 3}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := UnmarshalAction([]byte(c.line))
			if err != nil {
				t.Fatalf("UnmarshalAction(%s) error: %v", c.line, err)
			}
			if got != c.want {
				t.Fatalf("UnmarshalAction(%s) = %+v, want %+v", c.line, got, c.want)
			}
		})
	}
}

func TestUnmarshalActionRejectsGarbage(t *testing.T) {
	for _, line := range []string{`"Fly"`, `{"Jump":{}}`, `not json`} {
		if _, err := UnmarshalAction([]byte(line)); err == nil {
			t.Fatalf("UnmarshalAction(%s) should fail", line)
		}
	}
}
