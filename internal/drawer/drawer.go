// Package drawer renders a running game's map to a spectator file. It is a
// write-only sink; the engine never reads it back.
package drawer

import (
	"bytes"
	"os"
	"path/filepath"

	"farmio/internal/farm"
)

// Drawer truncates and rewrites one ANSI snapshot file per game, every
// turn: each map cell becomes a 2-row x 4-col block of its 8 ToANSI
// sub-cells, with an occupying player's name overlaid on the bottom row.
type Drawer struct {
	dir string
}

func New(dir string) *Drawer {
	os.MkdirAll(dir, 0755)
	return &Drawer{dir: dir}
}

// Snapshot rewrites gameName's file in full from the current map and
// player positions. Best-effort output for human spectators; a failed
// write never affects the game.
func (d *Drawer) Snapshot(gameName string, m *farm.Map, players map[string]*farm.Player) error {
	occupant := make(map[farm.Pos]string, len(players))
	for _, p := range players {
		occupant[p.Pos] = p.Name
	}

	size := m.Len()
	var buf bytes.Buffer
	for y := 0; y < size; y++ {
		var top, bottom bytes.Buffer
		for x := 0; x < size; x++ {
			pos := farm.Pos{X: x, Y: y}
			sub := m.Get(pos).ToANSI()
			top.WriteString(sub[0])
			top.WriteString(sub[1])
			top.WriteString(sub[2])
			top.WriteString(sub[3])
			if name, ok := occupant[pos]; ok {
				runes := []rune(name)
				for i := 0; i < 4; i++ {
					if i < len(runes) {
						bottom.WriteRune(runes[i])
					} else {
						bottom.WriteByte(' ')
					}
				}
			} else {
				bottom.WriteString(sub[4])
				bottom.WriteString(sub[5])
				bottom.WriteString(sub[6])
				bottom.WriteString(sub[7])
			}
		}
		buf.Write(top.Bytes())
		buf.WriteByte('\n')
		buf.Write(bottom.Bytes())
		buf.WriteByte('\n')
	}

	path := filepath.Join(d.dir, gameName+".farmio")
	return os.WriteFile(path, buf.Bytes(), 0644)
}
