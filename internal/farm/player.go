package farm

import "encoding/json"

// Outbound is the per-connection handle a Player uses to deliver messages
// back to its client. The channel carries pre-serialized lines; Send never
// blocks the caller (the game task) past a full channel — a full outbound
// channel drops the message rather than stalling the game loop.
type Outbound chan []byte

// Send marshals v to JSON, appends a newline, and attempts a non-blocking
// delivery. It returns false (and drops the message) if the channel is nil,
// closed, or full. A connection handler closes its outbound channel when
// the socket dies while the game task still holds it as p.Out, so the send
// to a closed channel must not take the game task down with it.
func (o Outbound) Send(v interface{}) (sent bool) {
	if o == nil {
		return false
	}
	line, err := json.Marshal(v)
	if err != nil {
		return false
	}
	line = append(line, '\n')
	defer func() {
		if recover() != nil {
			sent = false
		}
	}()
	select {
	case o <- line:
		return true
	default:
		return false
	}
}

// Player is one connected participant's mutable state within a Game. It is
// only ever touched by that game's owning task; no locking is needed.
type Player struct {
	ID       string
	Name     string
	Pos      Pos
	Harvests map[Harvest]int
	Seeds    map[Seed]int
	Points   uint32

	// PendingPairID caches the pair_id allocated by the first of a pair of
	// Swapshroom plantings; nil when no planting is in-flight for this
	// player.
	PendingPairID *uint32

	Out Outbound
}

// NewPlayer creates a player at the given spawn position with empty
// inventories, ready to receive its first envelope.
func NewPlayer(id, name string, pos Pos, out Outbound) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Pos:      pos,
		Harvests: map[Harvest]int{},
		Seeds:    map[Seed]int{},
		Out:      out,
	}
}

// AddPoints applies a saturating-at-zero point delta (positive or negative).
func (p *Player) AddPoints(delta int) {
	v := int64(p.Points) + int64(delta)
	if v < 0 {
		v = 0
	}
	p.Points = uint32(v)
}

// Envelope builds this player's current-state envelope wrapping result.
func (p *Player) Envelope(result MsgToPlayer, m *Map) Envelope {
	return Envelope{
		Result:   result,
		Cell:     m.Get(p.Pos),
		Harvests: p.Harvests,
		Seeds:    p.Seeds,
		Points:   p.Points,
	}
}
