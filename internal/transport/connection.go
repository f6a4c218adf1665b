// Package transport implements the TCP line-delimited JSON front door:
// one connection handler per session, splitting inbound parsing from a
// dedicated outbound writer goroutine so a slow socket never stalls the
// read side.
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"net"

	"farmio/internal/engine"
	"farmio/internal/farm"
	"farmio/internal/logging"
)

// Session holds one TCP connection's lobby-bound state. A session is bound
// to one game at a time: a later NewGame or JoinGame rebinds it, and the
// previously bound game is not sent a Disconnect.
type Session struct {
	ctx    context.Context
	conn   net.Conn
	log    *logging.Logger
	reg    *engine.Registry
	out    farm.Outbound
	player string // player_uuid once known
	name   string // player_name once known
	game   *engine.Game
}

// HandleConnection owns a single TCP session end-to-end: it starts the
// outbound writer, then runs the inbound read loop until the socket closes.
// A cancelled ctx is noticed when the next line arrives.
func HandleConnection(ctx context.Context, conn net.Conn, reg *engine.Registry, log *logging.Logger) {
	defer conn.Close()

	s := &Session{
		ctx:  ctx,
		conn: conn,
		log:  log,
		reg:  reg,
		out:  make(farm.Outbound, engine.InboundCapacity),
	}

	done := make(chan struct{})
	go s.writeLoop(done)

	s.readLoop(ctx)
	close(s.out)
	<-done
}

func (s *Session) writeLoop(done chan struct{}) {
	defer close(done)
	w := bufio.NewWriter(s.conn)
	for line := range s.out {
		if _, err := w.Write(line); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func (s *Session) readLoop(ctx context.Context) {
	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			s.disconnect()
			return
		default:
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s.handleLine(append([]byte(nil), line...))
	}
	s.disconnect()
}

func (s *Session) handleLine(line []byte) {
	var lobby LobbyMsg
	if err := json.Unmarshal(line, &lobby); err == nil && (lobby.NewGame != nil || lobby.JoinGame != nil) {
		s.handleLobby(lobby)
		return
	}

	action, err := farm.UnmarshalAction(line)
	if err != nil {
		s.out.Send("InvalidMsg")
		return
	}
	if s.game == nil {
		s.out.Send("NotConnectedToAnyGame")
		return
	}
	select {
	case s.game.Inbound <- engine.InboundMsg{Kind: engine.InboundAction, PlayerID: s.player, Action: action}:
	default:
		s.out.Send("UnableToCommunicateWithGame")
	}
}

func (s *Session) handleLobby(msg LobbyMsg) {
	switch {
	case msg.NewGame != nil:
		ng := msg.NewGame
		g, err := s.reg.Create(s.ctx, ng.GameName, ng.GameSettings)
		if err != nil {
			s.out.Send("GameAlreadyExists")
			return
		}
		s.out.Send("GameCreated")
		s.bindTo(g, ng.PlayerUUID, ng.PlayerName)

	case msg.JoinGame != nil:
		jg := msg.JoinGame
		g, ok := s.reg.Get(jg.GameName)
		if !ok {
			s.out.Send("GameNotExists")
			return
		}
		s.bindTo(g, jg.PlayerUUID, jg.PlayerName)
	}
}

func (s *Session) bindTo(g *engine.Game, playerUUID, playerName string) {
	s.game = g
	s.player = playerUUID
	s.name = playerName
	select {
	case g.Inbound <- engine.InboundMsg{Kind: engine.InboundConnect, PlayerID: playerUUID, PlayerName: playerName, Out: s.out}:
	default:
		s.out.Send("UnableToCommunicateWithGame")
	}
}

func (s *Session) disconnect() {
	if s.game == nil {
		return
	}
	select {
	case s.game.Inbound <- engine.InboundMsg{Kind: engine.InboundDisconnect, PlayerID: s.player}:
	default:
	}
}
