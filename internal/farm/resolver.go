package farm

import (
	"math/rand"
	"sort"
)

// ActiveSwapshrooms maps a matured pair_id to its two map positions. Owned
// by the Game engine and threaded through Resolve each turn.
type ActiveSwapshrooms map[uint32][2]Pos

type swapEvent struct {
	A, B Pos
}

// Resolve applies one turn's batch of pending actions to the map and player
// table, sending each participating player their resulting envelope (or
// bare "Swapped") over its outbound channel. active holds whatever
// Swapshroom pairs matured and activated on a prior turn's Map.Advance call
// (the resolver runs before this turn's own advancement, so a pair that
// matures this very turn only becomes harvestable starting next turn).
func Resolve(m *Map, players map[string]*Player, pending map[string]Action, active ActiveSwapshrooms, rng *rand.Rand) {
	// Snapshot once, before any Harvest mutates the map: otherwise two
	// simultaneous max-rank Sunflower harvests in the same turn would see
	// different "global max" values depending solely on iteration order.
	maxSunflowerRank, _ := m.MaxSunflowerRank()

	ids := sortedPlayerIDs(players)

	// Collection phase: every player has a desired_pos, Movers target
	// their neighbor cell, everyone else stays put.
	desired := make(map[string]Pos, len(ids))
	for _, id := range ids {
		p := players[id]
		if act := pending[id]; act.Kind == ActionMove {
			d := act.Direction
			desired[id] = p.Pos.NextIn(&d, m.Len())
		} else {
			desired[id] = p.Pos
		}
	}
	intent := map[Pos][]string{}
	for _, id := range ids {
		pos := desired[id]
		intent[pos] = append(intent[pos], id)
	}

	// Execution phase, iterated in a fixed order so any future RNG use here
	// stays deterministic; today nothing here consumes rng.
	moveResult := map[string]MsgToPlayer{}
	intentPositions := make([]Pos, 0, len(intent))
	for pos := range intent {
		intentPositions = append(intentPositions, pos)
	}
	sort.Slice(intentPositions, func(i, j int) bool {
		if intentPositions[i].Y != intentPositions[j].Y {
			return intentPositions[i].Y < intentPositions[j].Y
		}
		return intentPositions[i].X < intentPositions[j].X
	})

	for _, pos := range intentPositions {
		intenders := intent[pos]
		cell := m.Get(pos)
		switch {
		case cell.Plant.Variant == VariantWallbush:
			blocked := false
			for _, id := range intenders {
				if players[id].Pos != pos {
					blocked = true
					if pending[id].Kind == ActionMove {
						moveResult[id] = BlockedBy(BlockedByWallbush)
					}
				}
			}
			if blocked {
				cell.Plant.Health = satSub(cell.Plant.Health, 1)
				if cell.Plant.Health <= 0 {
					cell.Plant = NonePlant()
				}
				m.Set(pos, cell)
			}
		case len(intenders) == 1:
			id := intenders[0]
			p := players[id]
			if p.Pos == pos {
				continue // already there; no move attempted, no notification
			}
			if _, onActive := activePairAt(active, p.Pos); onActive {
				moveResult[id] = BlockedBy(BlockedBySwapshroom)
				continue
			}
			p.Pos = pos
			moveResult[id] = Moved()
		default:
			for _, id := range intenders {
				if players[id].Pos != pos && pending[id].Kind == ActionMove {
					moveResult[id] = BlockedBy(BlockedByAnotherPlayer)
				}
			}
		}
	}

	// Exactly one response per player that submitted an action; players who
	// sat the turn out anchored their cell during arbitration but are not
	// messaged.
	var swaps []swapEvent
	for _, id := range ids {
		act, submitted := pending[id]
		if !submitted {
			continue
		}
		p := players[id]
		if act.Kind == ActionMove {
			if res, ok := moveResult[id]; ok {
				p.Out.Send(p.Envelope(res, m))
			}
			continue
		}
		result, swap := resolveAction(m, p, act, active, rng, maxSunflowerRank)
		if swap != nil {
			swaps = append(swaps, *swap)
			continue
		}
		p.Out.Send(p.Envelope(result, m))
	}

	// Swap phase: apply teleports from Swapshroom harvests last, after
	// the turn's normal envelopes have already gone out.
	for _, sw := range swaps {
		var at1, at2 *Player
		for _, id := range ids {
			p := players[id]
			if p.Pos == sw.A {
				at1 = p
			} else if p.Pos == sw.B {
				at2 = p
			}
		}
		if at1 != nil {
			at1.Pos = sw.B
			at1.Out.Send("Swapped")
		}
		if at2 != nil {
			at2.Pos = sw.A
			at2.Out.Send("Swapped")
		}
	}
}

func sortedPlayerIDs(players map[string]*Player) []string {
	ids := make([]string, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func activePairAt(active ActiveSwapshrooms, pos Pos) (uint32, bool) {
	for id, pair := range active {
		if pair[0] == pos || pair[1] == pos {
			return id, true
		}
	}
	return 0, false
}

// resolveAction applies a single non-Move action at the player's current
// cell. A non-nil swapEvent means the harvesting player gets no envelope at
// all (only "Swapped" later).
func resolveAction(m *Map, p *Player, act Action, active ActiveSwapshrooms, rng *rand.Rand, maxSunflowerRank uint8) (MsgToPlayer, *swapEvent) {
	switch act.Kind {
	case ActionIdle:
		return Idled(), nil
	case ActionHarvest:
		return resolveHarvest(m, p, active, maxSunflowerRank)
	case ActionPlant:
		return resolvePlant(m, p, act.Seed, rng), nil
	case ActionTrade:
		return resolveTrade(p, act.Seed, act.Volume), nil
	case ActionTill:
		return resolveTill(m, p), nil
	default:
		return Idled(), nil
	}
}

func resolveHarvest(m *Map, p *Player, active ActiveSwapshrooms, maxSunflowerRank uint8) (MsgToPlayer, *swapEvent) {
	// Harvesting uproots the plant whether or not it yields anything; an
	// immature plant is simply destroyed with NoHarvest. Wallbush is the
	// exception: it is not harvestable and stays put.
	uproot := func() (MsgToPlayer, *swapEvent) {
		cell := m.Get(p.Pos)
		cell.Plant = NonePlant()
		m.Set(p.Pos, cell)
		return NoHarvest(), nil
	}

	cell := m.Get(p.Pos)
	switch cell.Plant.Variant {
	case VariantWheat:
		if cell.Plant.Growth < GrowthToGrains {
			return uproot()
		}
		p.Harvests[Grains] += GrainsYield
		p.AddPoints(PointsPerGrains * GrainsYield)
		cell.Plant = NonePlant()
		m.Set(p.Pos, cell)
		return Harvested(Grains, GrainsYield), nil

	case VariantBush:
		if cell.Plant.Berries > 0 {
			vol := cell.Plant.Berries
			p.Harvests[Berry] += vol
			p.AddPoints(PointsPerBerries * vol)
			// Growth drops back to the wood-ready mark so berries regrow
			// one per GrowthPerBerries instead of all reappearing at once.
			cell.Plant.Berries = 0
			cell.Plant.Growth = GrowthToWood
			m.Set(p.Pos, cell)
			return Harvested(Berry, vol), nil
		}
		if cell.Plant.Growth >= GrowthToWood {
			p.Harvests[Wood] += WoodYieldBush
			p.AddPoints(PointsPerWoodBush * WoodYieldBush)
			cell.Plant = NonePlant()
			m.Set(p.Pos, cell)
			return Harvested(Wood, WoodYieldBush), nil
		}
		return uproot()

	case VariantTree:
		if cell.Plant.Growth < GrowthToWoodTree {
			return uproot()
		}
		p.Harvests[Wood] += WoodYieldTree
		p.AddPoints(PointsPerWoodTree * WoodYieldTree)
		cell.Plant = NonePlant()
		m.Set(p.Pos, cell)
		return Harvested(Wood, WoodYieldTree), nil

	case VariantCane:
		if cell.Plant.Growth < GrowthToSugar {
			return uproot()
		}
		p.Harvests[Sugar] += SugarYield
		p.AddPoints(PointsPerSugar * SugarYield)
		cell.Plant = NonePlant()
		m.Set(p.Pos, cell)
		return Harvested(Sugar, SugarYield), nil

	case VariantPumpkin:
		if cell.Plant.CurrentSize < 1 {
			return uproot()
		}
		vol := cell.Plant.CurrentSize * cell.Plant.CurrentSize
		p.Harvests[PumpkinSeed] += vol
		p.AddPoints(PointsPerPumpkinSeed * vol)
		cell.Plant = NonePlant()
		m.Set(p.Pos, cell)
		return Harvested(PumpkinSeed, vol), nil

	case VariantCactus:
		if cell.Plant.Size < 1 {
			return uproot()
		}
		vol := cell.Plant.Size
		p.Harvests[CactusMeat] += vol
		p.AddPoints(PointsPerCactusMeat * vol)
		cell.Plant = NonePlant()
		m.Set(p.Pos, cell)
		return Harvested(CactusMeat, vol), nil

	case VariantWallbush:
		return NoHarvest(), nil

	case VariantSwapshroom:
		if !cell.Plant.Active {
			return uproot()
		}
		pairID, ok := activePairAt(active, p.Pos)
		if !ok {
			// Active flag set but the pair is not registered; degrade to
			// NoHarvest rather than teleporting half a pair.
			return NoHarvest(), nil
		}
		pair := active[pairID]
		delete(active, pairID)
		m.Set(pair[0], Cell{Ground: m.Get(pair[0]).Ground, Plant: NonePlant()})
		m.Set(pair[1], Cell{Ground: m.Get(pair[1]).Ground, Plant: NonePlant()})
		return MsgToPlayer{}, &swapEvent{A: pair[0], B: pair[1]}

	case VariantSunflower:
		if cell.Plant.Growth < GrowthToSunflowerReady {
			return uproot()
		}
		rank := cell.Plant.Rank
		cell.Plant = NonePlant()
		m.Set(p.Pos, cell)
		if rank == maxSunflowerRank {
			p.Harvests[Power] += PowerYield
			p.AddPoints(PointsPerPower * PowerYield)
			return Harvested(Power, PowerYield), nil
		}
		p.AddPoints(-(PointsPerPower * PowerYield))
		return NoHarvest(), nil
	default:
		return NoHarvest(), nil
	}
}

// resolvePlant applies a Plant action at the player's current cell. Ground
// mismatches refund nothing because the seed is only decremented once the
// ground check has already passed.
func resolvePlant(m *Map, p *Player, seed Seed, rng *rand.Rand) MsgToPlayer {
	if p.Seeds[seed] <= 0 {
		return NotEnoughSeed()
	}

	cell := m.Get(p.Pos)
	if cell.Plant.Variant == VariantWallbush || cell.Plant.Variant == VariantSwapshroom {
		return CannotPlantOver()
	}

	groundOK := false
	switch seed {
	case SeedWheat:
		groundOK = cell.Ground == Dirt || cell.Ground == Tiled
	case SeedSwapshroom:
		groundOK = true
	default:
		required, _ := seed.RequiredGround()
		groundOK = cell.Ground == required
	}
	if !groundOK {
		return WrongGroundType()
	}

	p.Seeds[seed]--

	switch seed {
	case SeedWheat:
		cell.Plant = NewWheat(0)
	case SeedBush:
		cell.Plant = NewBush(0, 0)
	case SeedTree:
		cell.Plant = NewTree(0)
	case SeedCane:
		cell.Plant = NewCane(0)
	case SeedPumpkin:
		cell.Plant = NewPumpkin(0, 0, 1)
	case SeedCactus:
		cell.Plant = NewCactus(0, 0)
	case SeedWallbush:
		cell.Plant = NewWallbush(0, WallbushMaxHealth)
	case SeedSwapshroom:
		if p.PendingPairID == nil {
			pairID := rng.Uint32()
			p.PendingPairID = &pairID
			cell.Plant = NewSwapshroom(0, pairID, false)
		} else {
			pairID := *p.PendingPairID
			p.PendingPairID = nil
			cell.Plant = NewSwapshroom(0, pairID, false)
		}
	case SeedSunflower:
		// Broadcast planting: every Stone cell not already hosting a
		// Swapshroom gets its own independently-rolled Sunflower. The
		// target cell itself is never written directly; it is included
		// here if and only if Stones() lists it. Iterated in a fixed
		// row-major order so rng consumption stays deterministic.
		for _, pos := range m.Stones() {
			sc := m.Get(pos)
			if sc.Plant.Variant == VariantSwapshroom {
				continue
			}
			sc.Plant = NewSunflower(0, uint8(rng.Intn(256)))
			m.Set(pos, sc)
		}
		return Planted()
	}

	m.Set(p.Pos, cell)
	return Planted()
}

// resolveTrade exchanges harvests for seeds at the fixed recipe costs.
// Wheat is never tradable and volume must be positive.
func resolveTrade(p *Player, seed Seed, volume int) MsgToPlayer {
	if volume <= 0 || seed == SeedWheat {
		return InvalidTrade()
	}
	recipe, ok := seedTradeRecipe[seed]
	if !ok {
		return InvalidTrade()
	}
	for _, c := range recipe {
		if p.Harvests[c.Harvest] < c.Cost*volume {
			return NotEnoughHarvest()
		}
	}
	for _, c := range recipe {
		p.Harvests[c.Harvest] -= c.Cost * volume
	}
	p.Seeds[seed] += volume
	return Traded()
}

// resolveTill toggles Dirt<->Tiled in place, preserving a Swapshroom plant
// if present and wiping any other.
func resolveTill(m *Map, p *Player) MsgToPlayer {
	cell := m.Get(p.Pos)
	if cell.Ground != Dirt && cell.Ground != Tiled {
		return WrongGroundType()
	}
	if cell.Ground == Dirt {
		cell.Ground = Tiled
	} else {
		cell.Ground = Dirt
	}
	if cell.Plant.Variant != VariantSwapshroom {
		cell.Plant = NonePlant()
	}
	m.Set(p.Pos, cell)
	return Tilled()
}
