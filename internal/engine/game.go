package engine

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"farmio/internal/drawer"
	"farmio/internal/farm"
	"farmio/internal/logging"
)

// Info is a read-only snapshot of a Game's status, safe to read from any
// goroutine (the admin HTTP surface) without touching the game's owned
// mutable state directly.
type Info struct {
	TaskID        string
	Name          string
	PlayerCount   int
	PlayersJoined int
	Running       bool
	Turn          int
}

// InboundKind tags what a message sent to a Game's inbound channel means.
type InboundKind int

const (
	InboundConnect InboundKind = iota
	InboundAction
	InboundDisconnect
)

// InboundMsg is the only shape a Game task ever receives. It is either a
// synthetic Connect/Disconnect from a connection handler, or a player's
// submitted Action.
type InboundMsg struct {
	Kind       InboundKind
	PlayerID   string
	PlayerName string
	Out        farm.Outbound
	Action     farm.Action
}

// InboundCapacity bounds every inbound and outbound channel.
const InboundCapacity = 1024

type gameState int

const (
	stateWaitingForPlayers gameState = iota
	stateRunning
)

// Game owns one running farmio match exclusively; every field below is only
// ever touched from the goroutine running Run, the classic actor-per-game
// pattern. No mutex guards any of this state.
type Game struct {
	Name     string
	TaskID   string
	Settings Settings
	Inbound  chan InboundMsg

	state   gameState
	players map[string]*farm.Player
	m       *farm.Map
	rng     *rand.Rand
	active  farm.ActiveSwapshrooms
	turn    int

	log    *logging.Logger
	drawer *drawer.Drawer
	onTurn func(gameName string, turn, actions int)

	info atomic.Pointer[Info]
}

// Snapshot returns the game's current read-only status. Safe to call from
// any goroutine.
func (g *Game) Snapshot() Info {
	if p := g.info.Load(); p != nil {
		return *p
	}
	return Info{Name: g.Name, PlayerCount: g.Settings.PlayerCount}
}

func (g *Game) publishInfo() {
	g.info.Store(&Info{
		TaskID:        g.TaskID,
		Name:          g.Name,
		PlayerCount:   g.Settings.PlayerCount,
		PlayersJoined: len(g.players),
		Running:       g.state == stateRunning,
		Turn:          g.turn,
	})
}

// NewGame constructs a game and generates its map from the seed in
// settings, but does not start its turn loop; call Run in its own
// goroutine. onTurn, if non-nil, is invoked after every resolved turn for
// admin-surface persistence; it must not block.
func NewGame(name string, settings Settings, log *logging.Logger, dw *drawer.Drawer, onTurn func(gameName string, turn, actions int)) *Game {
	rng := rand.New(rand.NewSource(settings.Seed))
	m := farm.GenerateMap(settings.MapSize, settings.PlayerCount, rng)
	g := &Game{
		Name:     name,
		TaskID:   uuid.NewString(),
		Settings: settings,
		Inbound:  make(chan InboundMsg, InboundCapacity),
		state:    stateWaitingForPlayers,
		players:  make(map[string]*farm.Player),
		m:        m,
		onTurn:   onTurn,
		rng:      rng,
		active:   farm.ActiveSwapshrooms{},
		log:      log.WithGame(name),
		drawer:   dw,
	}
	g.publishInfo()
	return g
}

// Run drives the game's full lifecycle: wait for players to join, then run
// turns until the context is cancelled or the inbound channel closes. There
// is no win condition; games run indefinitely.
func (g *Game) Run(ctx context.Context) {
	g.log.Infof("game %q starting, waiting for %d players", g.Name, g.Settings.PlayerCount)
	if !g.waitForPlayers(ctx) {
		return
	}
	g.log.Infof("game %q started", g.Name)
	for {
		if !g.runTurn(ctx) {
			return
		}
	}
}

func (g *Game) waitForPlayers(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-g.Inbound:
			if !ok {
				return false
			}
			if msg.Kind != InboundConnect {
				if p, known := g.players[msg.PlayerID]; known {
					p.Out.Send("WaitingOtherPlayersToJoin")
				}
				continue
			}
			if _, known := g.players[msg.PlayerID]; known {
				// The stored channel is kept; replacement only happens once
				// the game is running (reconnect).
				msg.Out.Send("AlreadyConnected")
				continue
			}
			free := g.m.FreeStones(g.occupiedPositions())
			if len(free) == 0 {
				msg.Out.Send("GameIsFull")
				continue
			}
			p := farm.NewPlayer(msg.PlayerID, msg.PlayerName, free[0], msg.Out)
			g.players[msg.PlayerID] = p
			msg.Out.Send(connectedPayload(g.Settings, len(g.players)))
			g.publishInfo()

			if len(g.players) == g.Settings.PlayerCount {
				for _, pl := range g.players {
					pl.Out.Send("GameStarted")
				}
				g.state = stateRunning
				g.publishInfo()
				return true
			}
		}
	}
}

// runTurn collects one turn's actions (with a deadline), resolves them, and
// advances the map. Returns false if the game should stop (context
// cancelled or the inbound channel closed).
func (g *Game) runTurn(ctx context.Context) bool {
	deadline := time.Now().Add(time.Duration(g.Settings.TurnDurationMs) * time.Millisecond)
	pending := make(map[string]farm.Action, len(g.players))

collect:
	for len(pending) < len(g.players) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
			break collect
		case msg, ok := <-g.Inbound:
			timer.Stop()
			if !ok {
				return false
			}
			switch msg.Kind {
			case InboundConnect:
				if p, known := g.players[msg.PlayerID]; known {
					p.Out = msg.Out
					p.Out.Send("Reconnected")
				} else {
					msg.Out.Send("GameIsFull")
				}
			case InboundDisconnect:
				// Player slots are never reclaimed; the player may reconnect.
			case InboundAction:
				if _, known := g.players[msg.PlayerID]; known {
					pending[msg.PlayerID] = msg.Action
				}
			}
		}
	}

	farm.Resolve(g.m, g.players, pending, g.active, g.rng)
	for _, a := range g.m.Advance(g.rng) {
		g.active[a.PairID] = [2]farm.Pos{a.A, a.B}
	}
	g.turn++
	g.publishInfo()

	if g.drawer != nil {
		g.drawer.Snapshot(g.Name, g.m, g.players)
	}
	g.log.WithFields(map[string]interface{}{
		"task_id": g.TaskID,
		"turn":    g.turn,
		"actions": len(pending),
	}, "turn %d resolved", g.turn)
	if g.onTurn != nil {
		g.onTurn(g.Name, g.turn, len(pending))
	}

	return true
}

func (g *Game) occupiedPositions() map[farm.Pos]bool {
	out := make(map[farm.Pos]bool, len(g.players))
	for _, p := range g.players {
		out[p.Pos] = true
	}
	return out
}

func connectedPayload(s Settings, playersConnected int) map[string]interface{} {
	return map[string]interface{}{
		"Connected": map[string]interface{}{
			"settings":          s,
			"players_connected": playersConnected,
		},
	}
}
