package engine

import (
	"context"
	"errors"

	"github.com/puzpuzpuz/xsync/v3"

	"farmio/internal/drawer"
	"farmio/internal/logging"
)

var (
	ErrGameAlreadyExists = errors.New("game already exists")
	ErrGameNotExists     = errors.New("game does not exist")
)

// Registry is the process-wide concurrent map from game name to its running
// Game: insert-dominant, single writer per key, many concurrent readers
// (connection handlers looking up where to forward an action).
type Registry struct {
	games    *xsync.MapOf[string, *Game]
	log      *logging.Logger
	dw       *drawer.Drawer
	onTurn   func(gameName string, turn, actions int)
	defaults Settings
}

// NewRegistry builds a registry. onTurn, if non-nil, is attached to every
// game it creates; pass a store.Store.AddTurnLog-backed closure to persist
// a per-turn admin activity record. defaults fills a zero player count,
// turn duration or map size in a client's NewGame settings; the seed is
// never defaulted.
func NewRegistry(log *logging.Logger, dw *drawer.Drawer, defaults Settings, onTurn func(gameName string, turn, actions int)) *Registry {
	return &Registry{
		games:    xsync.NewMapOf[string, *Game](),
		log:      log,
		dw:       dw,
		onTurn:   onTurn,
		defaults: defaults,
	}
}

// Create allocates a new Game, publishes it to the registry, and spawns its
// run loop. Returns ErrGameAlreadyExists if the name is taken.
func (r *Registry) Create(ctx context.Context, name string, settings Settings) (*Game, error) {
	settings = r.applyDefaults(settings)
	g := NewGame(name, settings, r.log, r.dw, r.onTurn)
	if _, loaded := r.games.LoadOrStore(name, g); loaded {
		return nil, ErrGameAlreadyExists
	}
	go g.Run(ctx)
	return g, nil
}

func (r *Registry) applyDefaults(s Settings) Settings {
	if s.PlayerCount <= 0 {
		s.PlayerCount = r.defaults.PlayerCount
	}
	if s.TurnDurationMs <= 0 {
		s.TurnDurationMs = r.defaults.TurnDurationMs
	}
	if s.MapSize <= 0 {
		s.MapSize = r.defaults.MapSize
	}
	return s
}

// Get looks up a game by name for JoinGame / action routing.
func (r *Registry) Get(name string) (*Game, bool) {
	return r.games.Load(name)
}

// List returns every currently registered game name, used by the admin
// dashboard.
func (r *Registry) List() []string {
	var out []string
	r.games.Range(func(name string, _ *Game) bool {
		out = append(out, name)
		return true
	})
	return out
}

// Snapshots returns a point-in-time status snapshot of every registered
// game, used by the admin dashboard.
func (r *Registry) Snapshots() []Info {
	var out []Info
	r.games.Range(func(_ string, g *Game) bool {
		out = append(out, g.Snapshot())
		return true
	})
	return out
}
