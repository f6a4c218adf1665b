package farm

import (
	"encoding/json"
	"fmt"
)

// ActionKind tags which in-game action a player submitted this turn.
type ActionKind string

const (
	ActionIdle    ActionKind = "Idle"
	ActionHarvest ActionKind = "Harvest"
	ActionTill    ActionKind = "Till"
	ActionMove    ActionKind = "Move"
	ActionPlant   ActionKind = "Plant"
	ActionTrade   ActionKind = "Trade"
)

// Action is one player's submitted turn action. Only the fields relevant
// to Kind are populated.
type Action struct {
	Kind      ActionKind
	Direction Direction
	Seed      Seed
	Volume    int
}

// UnmarshalAction decodes one inbound action line's JSON payload, which is
// either a bare string ("Idle", "Harvest", "Till") or a single-key object
// ({"Move": {...}}, {"Plant": {...}}, {"Trade": {...}}).
func UnmarshalAction(data []byte) (Action, error) {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		switch ActionKind(bare) {
		case ActionIdle, ActionHarvest, ActionTill:
			return Action{Kind: ActionKind(bare)}, nil
		default:
			return Action{}, fmt.Errorf("unknown bare action %q", bare)
		}
	}

	var shape struct {
		Move *struct {
			Direction Direction `json:"direction"`
		} `json:"Move"`
		Plant *struct {
			Seed Seed `json:"seed"`
		} `json:"Plant"`
		Trade *struct {
			Seed   Seed `json:"seed"`
			Volume int  `json:"volume"`
		} `json:"Trade"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return Action{}, err
	}
	switch {
	case shape.Move != nil:
		return Action{Kind: ActionMove, Direction: shape.Move.Direction}, nil
	case shape.Plant != nil:
		return Action{Kind: ActionPlant, Seed: shape.Plant.Seed}, nil
	case shape.Trade != nil:
		return Action{Kind: ActionTrade, Seed: shape.Trade.Seed, Volume: shape.Trade.Volume}, nil
	default:
		return Action{}, fmt.Errorf("unrecognized action payload")
	}
}
