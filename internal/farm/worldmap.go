package farm

import (
	"math/rand"
)

// Map is an N x N grid of cells, torus-addressed through Pos.
type Map struct {
	size int
	grid []Cell // row-major, size*size
}

func (m *Map) Len() int { return m.size }

func (m *Map) index(p Pos) int { return p.Y*m.size + p.X }

func (m *Map) Get(p Pos) Cell { return m.grid[m.index(p)] }

func (m *Map) Set(p Pos, c Cell) { m.grid[m.index(p)] = c }

// Neighbors returns the 4 torus-adjacent cells in AllDirections order.
func (m *Map) Neighbors(p Pos) [4]Cell {
	var out [4]Cell
	for i, d := range AllDirections {
		d := d
		out[i] = m.Get(p.NextIn(&d, m.size))
	}
	return out
}

// Stones returns every position currently on Stone ground.
func (m *Map) Stones() []Pos {
	var out []Pos
	for y := 0; y < m.size; y++ {
		for x := 0; x < m.size; x++ {
			p := Pos{X: x, Y: y}
			if m.Get(p).Ground == Stone {
				out = append(out, p)
			}
		}
	}
	return out
}

// MaxSunflowerRank returns the highest rank among all currently-planted
// Sunflowers on the map, used to decide which Sunflower harvest yields Power.
func (m *Map) MaxSunflowerRank() (max uint8, any bool) {
	for _, c := range m.grid {
		if c.Plant.Variant == VariantSunflower {
			if !any || c.Plant.Rank > max {
				max = c.Plant.Rank
				any = true
			}
		}
	}
	return max, any
}

// ground percentage shares used by GenerateMap.
const (
	pctTilledBush = 5
	pctSand       = 20
	pctSandCane   = 5
	pctWater      = 10
)

// GenerateMap draws a flat bag of cells at fixed percentages, shuffles it
// with rng, and reshapes it into an N x N grid. Then stamps playerCount
// distinct Stone spawn points, on plant-free cells first and on planted
// cells only once those run out.
func GenerateMap(size, playerCount int, rng *rand.Rand) *Map {
	total := size * size
	tilledBush := (total * pctTilledBush) / 100
	sandEmpty := (total * pctSand) / 100
	sandCane := (total * pctSandCane) / 100
	water := (total * pctWater) / 100
	const pumpkinCount = 1
	const cactusCount = 1

	bag := make([]Cell, 0, total)
	add := func(n int, c func() Cell) {
		for i := 0; i < n; i++ {
			bag = append(bag, c())
		}
	}
	add(tilledBush, func() Cell {
		return Cell{Ground: Tiled, Plant: NewBush(GrowthToWood+MaxBerries*GrowthPerBerries, MaxBerries)}
	})
	add(sandEmpty, func() Cell { return Cell{Ground: Sand, Plant: NonePlant()} })
	add(sandCane, func() Cell { return Cell{Ground: Sand, Plant: NewCane(GrowthToSugar)} })
	add(water, func() Cell { return Cell{Ground: Water, Plant: NonePlant()} })
	add(pumpkinCount, func() Cell { return Cell{Ground: Tiled, Plant: NewPumpkin(0, 0, 1)} })
	add(cactusCount, func() Cell { return Cell{Ground: Sand, Plant: NewCactus(0, 0)} })
	for len(bag) < total {
		bag = append(bag, Cell{Ground: Dirt, Plant: NewWheat(GrowthToGrains)})
	}
	bag = bag[:total]

	rng.Shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })

	m := &Map{size: size, grid: bag}

	// Stamp playerCount distinct Stone spawn points, preferring plant-free
	// cells so the lone pumpkin and cactus seeds survive generation.
	free := make([]int, 0, total)
	occupied := make([]int, 0, total)
	for i := range m.grid {
		if m.grid[i].Plant.Variant == VariantNone {
			free = append(free, i)
		} else {
			occupied = append(occupied, i)
		}
	}
	rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	rng.Shuffle(len(occupied), func(i, j int) { occupied[i], occupied[j] = occupied[j], occupied[i] })
	free = append(free, occupied...)
	for i := 0; i < playerCount && i < len(free); i++ {
		m.grid[free[i]] = Cell{Ground: Stone, Plant: NonePlant()}
	}

	return m
}

// FreeStones returns Stone positions not currently occupied by any player,
// used to place a newly-joined player.
func (m *Map) FreeStones(occupied map[Pos]bool) []Pos {
	var out []Pos
	for _, p := range m.Stones() {
		if !occupied[p] {
			out = append(out, p)
		}
	}
	return out
}

// Advance runs one turn's worth of plant growth, reading from a snapshot so
// every cell's new state is order-independent. The returned activations
// list every Swapshroom pair that atomically activated this turn, together
// with the two cell positions, so the caller (the game engine) can register
// them.
func (m *Map) Advance(rng *rand.Rand) (activations []SwapshroomActivation) {
	snapshot := &Map{size: m.size, grid: append([]Cell(nil), m.grid...)}

	waterAdjacent := make([]bool, len(m.grid))
	for i := range m.grid {
		p := Pos{X: i % m.size, Y: i / m.size}
		for _, n := range snapshot.Neighbors(p) {
			if n.Ground == Water {
				waterAdjacent[i] = true
				break
			}
		}
	}

	// Track mature-and-inactive Swapshrooms, grouped by pair_id, to find
	// pairs that are simultaneously ready.
	readyPairs := map[uint32][]Pos{}

	for i := range m.grid {
		p := Pos{X: i % m.size, Y: i / m.size}
		cell := m.grid[i]
		rate := 1
		if waterAdjacent[i] {
			rate = 2
		}

		switch cell.Plant.Variant {
		case VariantNone:
			if cell.Ground == Dirt {
				cell.Plant = NewWheat(0)
			}
		case VariantWheat:
			cell.Plant.Growth = satAdd(cell.Plant.Growth, rate, GrowthToGrains)
		case VariantBush:
			cap := GrowthToWood + MaxBerries*GrowthPerBerries
			cell.Plant.Growth = satAdd(cell.Plant.Growth, rate, cap)
			if cell.Plant.Growth > GrowthToWood {
				cell.Plant.Berries = (cell.Plant.Growth - GrowthToWood) / GrowthPerBerries
			}
		case VariantTree:
			blocked := false
			for _, n := range snapshot.Neighbors(p) {
				if n.Plant.Variant == VariantTree {
					blocked = true
					break
				}
			}
			if !blocked {
				cell.Plant.Growth = satAdd(cell.Plant.Growth, rate, GrowthToWoodTree)
			}
		case VariantCane:
			cell.Plant.Growth = satAdd(cell.Plant.Growth, rate, GrowthToSugar)
		case VariantPumpkin:
			maxSize := 1
			for _, n := range snapshot.Neighbors(p) {
				if n.Plant.Variant == VariantPumpkin && n.Plant.Growth >= GrowthPerPumpkinSeed {
					maxSize++
				}
			}
			cell.Plant.MaxSize = maxSize
			target := GrowthPerPumpkinSeed * maxSize
			switch {
			case target > cell.Plant.Growth:
				cell.Plant.Growth = satAdd(cell.Plant.Growth, rate, target)
			case target < cell.Plant.Growth:
				cell.Plant.Growth = satSub(cell.Plant.Growth, rate)
				if cell.Plant.Growth < target {
					cell.Plant.Growth = target
				}
			}
			cell.Plant.CurrentSize = cell.Plant.Growth / GrowthPerPumpkinSeed
		case VariantCactus:
			cap := GrowthPerCactusMeat * MaxCactusMeat
			cell.Plant.Growth = satAdd(cell.Plant.Growth, rate, cap)
			cell.Plant.Size = cell.Plant.Growth / GrowthPerCactusMeat
		case VariantWallbush:
			cell.Plant.Growth = satAdd(cell.Plant.Growth, rate, GrowthToWallbushReady)
		case VariantSwapshroom:
			cell.Plant.Growth = satAdd(cell.Plant.Growth, rate, GrowthToSwapshroomReady)
			if !cell.Plant.Active && cell.Plant.Growth >= GrowthToSwapshroomReady {
				readyPairs[cell.Plant.PairID] = append(readyPairs[cell.Plant.PairID], p)
			}
		case VariantSunflower:
			cell.Plant.Growth = satAdd(cell.Plant.Growth, rate, GrowthToSunflowerReady)
		}

		m.grid[i] = cell
	}

	// Atomic pair activation: only pairs with both members currently
	// mature-and-inactive activate; the write-back re-checks both cells are
	// still Swapshrooms so a mid-turn overwrite by Plant/Till drops the
	// activation entirely rather than activating one side.
	for pairID, positions := range readyPairs {
		if len(positions) != 2 {
			continue
		}
		a, b := positions[0], positions[1]
		ca, cb := m.Get(a), m.Get(b)
		if ca.Plant.Variant != VariantSwapshroom || ca.Plant.PairID != pairID ||
			cb.Plant.Variant != VariantSwapshroom || cb.Plant.PairID != pairID {
			continue
		}
		ca.Plant.Active = true
		cb.Plant.Active = true
		m.Set(a, ca)
		m.Set(b, cb)
		activations = append(activations, SwapshroomActivation{PairID: pairID, A: a, B: b})
	}

	return activations
}

// SwapshroomActivation is emitted by Advance when a pair simultaneously
// matures; the engine registers it in its active-swapshroom table.
type SwapshroomActivation struct {
	PairID uint32
	A, B   Pos
}

func satAdd(v, delta, cap int) int {
	v += delta
	if v > cap {
		v = cap
	}
	return v
}

func satSub(v, delta int) int {
	v -= delta
	if v < 0 {
		v = 0
	}
	return v
}
