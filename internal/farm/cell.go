package farm

import "fmt"

// Cell is one map tile: its terrain and whatever is planted on it.
type Cell struct {
	Ground Ground `json:"ground"`
	Plant  Plant  `json:"plant"`
}

// ToANSI renders the cell as 8 escaped sub-cells (background from ground,
// foreground + glyph from plant), 2 rows of 4 laid out by the caller.
func (c Cell) ToANSI() [8]string {
	background := map[Ground]int{
		Dirt:  94,
		Tiled: 22,
		Sand:  142,
		Water: 62,
		Stone: 249,
	}[c.Ground]

	foreground, subcells := c.plantGlyphs()

	var out [8]string
	for i, ch := range subcells {
		out[i] = fmt.Sprintf("\x1b[48;5;%dm\x1b[38;5;%dm%c\x1b[0m", background, foreground, ch)
	}
	return out
}

func (c Cell) plantGlyphs() (foreground int, subcells [8]rune) {
	p := c.Plant
	switch p.Variant {
	case VariantWheat:
		g := chars3(p.Growth)
		m := chars3(GrowthToGrains)
		return 184, [8]rune{'W', g[0], g[1], g[2], '/', m[0], m[1], m[2]}
	case VariantBush:
		g := chars3(p.Growth)
		b := chars3(p.Berries)
		return 76, [8]rune{'B', g[0], g[1], g[2], '°', b[0], b[1], b[2]}
	case VariantTree:
		g := chars3(p.Growth)
		m := chars3(GrowthToWoodTree)
		return 70, [8]rune{'T', g[0], g[1], g[2], '/', m[0], m[1], m[2]}
	case VariantCane:
		g := chars3(p.Growth)
		m := chars3(GrowthToSugar)
		return 0, [8]rune{'C', g[0], g[1], g[2], '/', m[0], m[1], m[2]}
	case VariantPumpkin:
		g := chars3(p.Growth)
		return 172, [8]rune{'P', g[0], g[1], g[2], '+', char1(p.CurrentSize), '/', char1(p.MaxSize)}
	case VariantCactus:
		g := chars3(p.Growth)
		return 22, [8]rune{'I', g[0], g[1], g[2], '+', char1(p.Size), '/', char1(MaxCactusMeat)}
	case VariantWallbush:
		g := chars3(p.Growth)
		h := chars3(p.Health)
		return 0, [8]rune{'#', g[0], g[1], g[2], '#', h[0], h[1], h[2]}
	case VariantSwapshroom:
		c := pairDigits(p.PairID)
		glyph := rune('o')
		if p.Active {
			glyph = '*'
		}
		return 53, [8]rune{glyph, c[0], c[1], c[2], c[3], c[4], c[5], c[6]}
	case VariantSunflower:
		g := chars3(p.Growth)
		r := chars3(int(p.Rank))
		return 11, [8]rune{'S', g[0], g[1], g[2], 's', r[0], r[1], r[2]}
	default:
		return 0, [8]rune{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
	}
}

func char1(x int) rune {
	s := fmt.Sprintf("%d", x)
	return rune(s[0])
}

func chars3(x int) [3]rune {
	s := fmt.Sprintf("%03d", x%1000)
	return [3]rune{rune(s[0]), rune(s[1]), rune(s[2])}
}

func pairDigits(pairID uint32) [7]rune {
	s := fmt.Sprintf("%07d", pairID%10000000)
	var out [7]rune
	for i, r := range s {
		out[i] = r
	}
	return out
}
