package farm

import (
	"encoding/json"
	"math/rand"
	"testing"
)

func newTestMap(size int, ground Ground) *Map {
	grid := make([]Cell, size*size)
	for i := range grid {
		grid[i] = Cell{Ground: ground, Plant: NonePlant()}
	}
	return &Map{size: size, grid: grid}
}

// drain returns the raw line sent to o, minus its trailing newline.
func drain(o Outbound) interface{} {
	select {
	case v := <-o:
		s := string(v)
		if len(s) > 0 && s[len(s)-1] == '\n' {
			s = s[:len(s)-1]
		}
		return s
	default:
		return nil
	}
}

// drainResult decodes an envelope response (the normal shape for every
// in-turn action) and returns its "result" field re-marshaled, so callers
// can compare against the bare MsgToPlayer wire shape without caring about
// the surrounding cell/harvests/seeds/points fields.
func drainResult(t *testing.T, o Outbound) string {
	t.Helper()
	v, ok := drain(o).(string)
	if !ok {
		t.Fatalf("expected an envelope line, got nothing")
	}
	var decoded struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal([]byte(v), &decoded); err != nil {
		t.Fatalf("envelope did not decode: %v (line: %s)", err, v)
	}
	return string(decoded.Result)
}

// Two players moving into the same free cell both get
// BlockedBy(AnotherPlayer) and neither moves.
func TestResolveMoveCollisionBlocksBoth(t *testing.T) {
	m := newTestMap(4, Dirt)
	rng := rand.New(rand.NewSource(1))

	a := NewPlayer("a", "A", Pos{X: 0, Y: 0}, make(Outbound, 4))
	b := NewPlayer("b", "B", Pos{X: 2, Y: 0}, make(Outbound, 4))
	players := map[string]*Player{"a": a, "b": b}
	pending := map[string]Action{
		"a": {Kind: ActionMove, Direction: Right},
		"b": {Kind: ActionMove, Direction: Left},
	}

	Resolve(m, players, pending, ActiveSwapshrooms{}, rng)

	if a.Pos != (Pos{X: 0, Y: 0}) || b.Pos != (Pos{X: 2, Y: 0}) {
		t.Fatalf("positions changed on collision: a=%v b=%v", a.Pos, b.Pos)
	}
	wantBlocked := `{"BlockedBy":"AnotherPlayer"}`
	if got := drainResult(t, a.Out); got != wantBlocked {
		t.Fatalf("a got %v, want %s", got, wantBlocked)
	}
	if got := drainResult(t, b.Out); got != wantBlocked {
		t.Fatalf("b got %v, want %s", got, wantBlocked)
	}
}

// A player who submitted nothing this turn still anchors their cell for
// arbitration but receives no response.
func TestResolveNonSubmitterGetsNoMessage(t *testing.T) {
	m := newTestMap(4, Dirt)
	rng := rand.New(rand.NewSource(1))

	mover := NewPlayer("a", "A", Pos{X: 0, Y: 0}, make(Outbound, 4))
	idle := NewPlayer("b", "B", Pos{X: 1, Y: 0}, make(Outbound, 4))
	players := map[string]*Player{"a": mover, "b": idle}
	pending := map[string]Action{"a": {Kind: ActionMove, Direction: Right}}

	Resolve(m, players, pending, ActiveSwapshrooms{}, rng)

	if mover.Pos != (Pos{X: 0, Y: 0}) {
		t.Fatalf("mover walked into an occupied cell: %v", mover.Pos)
	}
	if got := drainResult(t, mover.Out); got != `{"BlockedBy":"AnotherPlayer"}` {
		t.Fatalf("mover got %v, want BlockedBy AnotherPlayer", got)
	}
	if got := drain(idle.Out); got != nil {
		t.Fatalf("non-submitter got %v, want no message", got)
	}
}

// A single player with no contention simply moves and is told so.
func TestResolveSoleMoverSucceeds(t *testing.T) {
	m := newTestMap(4, Dirt)
	rng := rand.New(rand.NewSource(1))
	a := NewPlayer("a", "A", Pos{X: 0, Y: 0}, make(Outbound, 4))
	players := map[string]*Player{"a": a}
	pending := map[string]Action{"a": {Kind: ActionMove, Direction: Right}}

	Resolve(m, players, pending, ActiveSwapshrooms{}, rng)

	if a.Pos != (Pos{X: 1, Y: 0}) {
		t.Fatalf("a.Pos = %v, want {1 0}", a.Pos)
	}
	if got := drainResult(t, a.Out); got != `"Moved"` {
		t.Fatalf("a got %v, want \"Moved\"", got)
	}
}

// A Wallbush blocks every move into its cell and loses one health per turn
// it blocks someone, disappearing at zero.
func TestResolveWallbushWearsDownThenDisappears(t *testing.T) {
	m := newTestMap(2, Dirt)
	m.Set(Pos{X: 1, Y: 0}, Cell{Ground: Dirt, Plant: NewWallbush(GrowthToWallbushReady, 1)})
	rng := rand.New(rand.NewSource(1))
	a := NewPlayer("a", "A", Pos{X: 0, Y: 0}, make(Outbound, 4))
	players := map[string]*Player{"a": a}
	pending := map[string]Action{"a": {Kind: ActionMove, Direction: Right}}

	Resolve(m, players, pending, ActiveSwapshrooms{}, rng)

	if a.Pos != (Pos{X: 0, Y: 0}) {
		t.Fatalf("a moved onto a Wallbush cell: %v", a.Pos)
	}
	wantBlocked := `{"BlockedBy":"Wallbush"}`
	if got := drainResult(t, a.Out); got != wantBlocked {
		t.Fatalf("a got %v, want %s", got, wantBlocked)
	}
	if m.Get(Pos{X: 1, Y: 0}).Plant.Variant != VariantNone {
		t.Fatalf("wallbush with health=1 should be removed after one blocked move")
	}
}

// Harvesting an active Swapshroom teleports both ends and both
// receive a bare "Swapped", with no envelope for the harvester.
func TestResolveSwapshroomHarvestTeleportsBoth(t *testing.T) {
	m := newTestMap(2, Dirt)
	m.Set(Pos{X: 0, Y: 0}, Cell{Ground: Dirt, Plant: NewSwapshroom(GrowthToSwapshroomReady, 42, true)})
	m.Set(Pos{X: 1, Y: 0}, Cell{Ground: Dirt, Plant: NewSwapshroom(GrowthToSwapshroomReady, 42, true)})
	rng := rand.New(rand.NewSource(1))

	harvester := NewPlayer("h", "H", Pos{X: 0, Y: 0}, make(Outbound, 4))
	other := NewPlayer("o", "O", Pos{X: 1, Y: 0}, make(Outbound, 4))
	players := map[string]*Player{"h": harvester, "o": other}
	pending := map[string]Action{"h": {Kind: ActionHarvest}}
	active := ActiveSwapshrooms{42: {Pos{X: 0, Y: 0}, Pos{X: 1, Y: 0}}}

	Resolve(m, players, pending, active, rng)

	if harvester.Pos != (Pos{X: 1, Y: 0}) || other.Pos != (Pos{X: 0, Y: 0}) {
		t.Fatalf("swap positions wrong: h=%v o=%v", harvester.Pos, other.Pos)
	}
	if got := drain(harvester.Out); got != `"Swapped"` {
		t.Fatalf("harvester got %v, want \"Swapped\" (no envelope for the harvesting player)", got)
	}
	// other submitted no action this turn, so its only message is the
	// swap-phase "Swapped".
	if got := drain(other.Out); got != `"Swapped"` {
		t.Fatalf("other got %v, want \"Swapped\"", got)
	}
	if _, ok := active[42]; ok {
		t.Fatalf("pair should be removed from the active registry after harvest")
	}
	if m.Get(Pos{X: 0, Y: 0}).Plant.Variant != VariantNone || m.Get(Pos{X: 1, Y: 0}).Plant.Variant != VariantNone {
		t.Fatalf("both swapshroom cells should be empty after harvest")
	}
}

// Harvesting a non-max-rank mature Sunflower yields NoHarvest and
// penalizes points; harvesting the max-rank one yields Power.
func TestResolveSunflowerRankGatesPower(t *testing.T) {
	m := newTestMap(2, Stone)
	m.Set(Pos{X: 0, Y: 0}, Cell{Ground: Stone, Plant: NewSunflower(GrowthToSunflowerReady, 200)})
	m.Set(Pos{X: 1, Y: 0}, Cell{Ground: Stone, Plant: NewSunflower(GrowthToSunflowerReady, 201)})
	rng := rand.New(rand.NewSource(1))

	low := NewPlayer("low", "Low", Pos{X: 0, Y: 0}, make(Outbound, 4))
	low.Points = 2000
	high := NewPlayer("high", "High", Pos{X: 1, Y: 0}, make(Outbound, 4))
	players := map[string]*Player{"low": low, "high": high}
	pending := map[string]Action{
		"low":  {Kind: ActionHarvest},
		"high": {Kind: ActionHarvest},
	}

	Resolve(m, players, pending, ActiveSwapshrooms{}, rng)

	if got := drainResult(t, low.Out); got != `"NoHarvest"` {
		t.Fatalf("low-rank harvester got %v, want \"NoHarvest\"", got)
	}
	if low.Points != 2000-1024 {
		t.Fatalf("low.Points = %d, want %d", low.Points, 2000-1024)
	}
	if high.Harvests[Power] != 1 {
		t.Fatalf("high.Harvests[Power] = %d, want 1", high.Harvests[Power])
	}
	if high.Points != 1024 {
		t.Fatalf("high.Points = %d, want 1024", high.Points)
	}
}

// Trading deducts harvest costs and credits seeds.
func TestResolveTradeDeductsAndCredits(t *testing.T) {
	p := NewPlayer("p", "P", Pos{}, make(Outbound, 4))
	p.Harvests[Grains] = 10

	msg := resolveTrade(p, SeedBush, 2)

	if msg.Kind != MsgTraded {
		t.Fatalf("msg.Kind = %v, want Traded", msg.Kind)
	}
	if p.Harvests[Grains] != 2 {
		t.Fatalf("Harvests[Grains] = %d, want 2", p.Harvests[Grains])
	}
	if p.Seeds[SeedBush] != 2 {
		t.Fatalf("Seeds[Bush] = %d, want 2", p.Seeds[SeedBush])
	}
}

func TestResolveTradeRejectsWheatAndZeroVolume(t *testing.T) {
	p := NewPlayer("p", "P", Pos{}, make(Outbound, 4))
	p.Harvests[Grains] = 100
	if msg := resolveTrade(p, SeedWheat, 1); msg.Kind != MsgInvalidTrade {
		t.Fatalf("trading Wheat should be InvalidTrade, got %v", msg.Kind)
	}
	if msg := resolveTrade(p, SeedBush, 0); msg.Kind != MsgInvalidTrade {
		t.Fatalf("volume=0 should be InvalidTrade, got %v", msg.Kind)
	}
}

func TestResolveTradeNotEnoughHarvest(t *testing.T) {
	p := NewPlayer("p", "P", Pos{}, make(Outbound, 4))
	p.Harvests[Grains] = 1
	if msg := resolveTrade(p, SeedBush, 2); msg.Kind != MsgNotEnoughHarvest {
		t.Fatalf("msg.Kind = %v, want NotEnoughHarvest", msg.Kind)
	}
	if p.Seeds[SeedBush] != 0 {
		t.Fatalf("a failed trade must not credit seeds")
	}
}

// Planting on the wrong ground refunds nothing (the seed was never
// decremented) and reports WrongGroundType.
func TestResolvePlantWrongGroundRefundsNothing(t *testing.T) {
	m := newTestMap(1, Water)
	p := NewPlayer("p", "P", Pos{}, make(Outbound, 4))
	p.Seeds[SeedWheat] = 1
	rng := rand.New(rand.NewSource(1))

	msg := resolvePlant(m, p, SeedWheat, rng)

	if msg.Kind != MsgWrongGround {
		t.Fatalf("msg.Kind = %v, want WrongGroundType", msg.Kind)
	}
	if p.Seeds[SeedWheat] != 1 {
		t.Fatalf("Seeds[Wheat] = %d, want 1 (refund implicit, never decremented)", p.Seeds[SeedWheat])
	}
}

// Planting then immediately harvesting a growth=0 plant always yields
// NoHarvest.
func TestPlantThenHarvestImmediatelyYieldsNoHarvest(t *testing.T) {
	m := newTestMap(1, Dirt)
	p := NewPlayer("p", "P", Pos{}, make(Outbound, 4))
	p.Seeds[SeedWheat] = 1
	rng := rand.New(rand.NewSource(1))

	if msg := resolvePlant(m, p, SeedWheat, rng); msg.Kind != MsgPlanted {
		t.Fatalf("plant failed: %v", msg.Kind)
	}
	result, swap := resolveHarvest(m, p, ActiveSwapshrooms{}, 0)
	if swap != nil {
		t.Fatalf("unexpected swap event")
	}
	if result.Kind != MsgNoHarvest {
		t.Fatalf("result.Kind = %v, want NoHarvest", result.Kind)
	}
	if m.Get(Pos{}).Plant.Variant != VariantNone {
		t.Fatalf("an immature harvest must uproot the plant, got %v", m.Get(Pos{}).Plant.Variant)
	}
}

// Harvesting berries drops growth back to the wood-ready mark so berries
// regrow gradually rather than reappearing in full next turn.
func TestHarvestBerriesResetsGrowth(t *testing.T) {
	m := newTestMap(1, Tiled)
	m.Set(Pos{}, Cell{Ground: Tiled, Plant: NewBush(GrowthToWood+MaxBerries*GrowthPerBerries, MaxBerries)})
	p := NewPlayer("p", "P", Pos{}, make(Outbound, 4))

	result, _ := resolveHarvest(m, p, ActiveSwapshrooms{}, 0)
	if result.Kind != MsgHarvested || result.Harvest != Berry || result.Volume != MaxBerries {
		t.Fatalf("result = %+v, want Harvested %d Berry", result, MaxBerries)
	}
	if p.Points != uint32(PointsPerBerries*MaxBerries) {
		t.Fatalf("Points = %d, want %d", p.Points, PointsPerBerries*MaxBerries)
	}
	after := m.Get(Pos{}).Plant
	if after.Variant != VariantBush || after.Berries != 0 || after.Growth != GrowthToWood {
		t.Fatalf("bush after berry harvest = %+v, want wood-ready with growth %d", after, GrowthToWood)
	}
}

// Wallbush and Swapshroom forbid overplanting.
func TestResolvePlantCannotPlantOverWallbush(t *testing.T) {
	m := newTestMap(1, Tiled)
	m.Set(Pos{}, Cell{Ground: Tiled, Plant: NewWallbush(0, WallbushMaxHealth)})
	p := NewPlayer("p", "P", Pos{}, make(Outbound, 4))
	p.Seeds[SeedBush] = 1
	rng := rand.New(rand.NewSource(1))

	if msg := resolvePlant(m, p, SeedBush, rng); msg.Kind != MsgCannotPlantOver {
		t.Fatalf("msg.Kind = %v, want CannotPlantOver", msg.Kind)
	}
}

// Till is an involution on Dirt/Tiled cells with no plant.
func TestResolveTillTogglesDirtAndTiled(t *testing.T) {
	m := newTestMap(1, Dirt)
	p := NewPlayer("p", "P", Pos{}, make(Outbound, 4))

	if msg := resolveTill(m, p); msg.Kind != MsgTilled {
		t.Fatalf("msg.Kind = %v, want Tilled", msg.Kind)
	}
	if m.Get(Pos{}).Ground != Tiled {
		t.Fatalf("ground = %v, want Tiled", m.Get(Pos{}).Ground)
	}
	if msg := resolveTill(m, p); msg.Kind != MsgTilled {
		t.Fatalf("msg.Kind = %v, want Tilled", msg.Kind)
	}
	if m.Get(Pos{}).Ground != Dirt {
		t.Fatalf("ground = %v, want Dirt back after involution", m.Get(Pos{}).Ground)
	}
}

func TestResolveTillWrongGround(t *testing.T) {
	m := newTestMap(1, Water)
	p := NewPlayer("p", "P", Pos{}, make(Outbound, 4))
	if msg := resolveTill(m, p); msg.Kind != MsgWrongGround {
		t.Fatalf("msg.Kind = %v, want WrongGroundType", msg.Kind)
	}
}
