package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"farmio/internal/engine"
	"farmio/internal/logging"
	"farmio/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RegisterDashboardRoutes wires the read-only admin surface: live game
// status, per-game turn history, and a live log tail.
func RegisterDashboardRoutes(r gin.IRouter, reg *engine.Registry, s *store.Store, log *logging.Logger) {
	r.GET("/games", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"games": reg.Snapshots()})
	})

	r.GET("/games/:name", func(c *gin.Context) {
		g, ok := reg.Get(c.Param("name"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}
		c.JSON(http.StatusOK, g.Snapshot())
	})

	r.GET("/games/:name/turns", func(c *gin.Context) {
		limit := 0
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		logs, err := s.GetTurnLogs(c.Param("name"), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"turns": logs})
	})

	// WS /logs - spectate the live structured log feed across all games.
	r.GET("/logs", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ch := log.Subscribe()
		defer log.Unsubscribe(ch)

		conn.SetReadDeadline(time.Now().Add(time.Minute))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(time.Minute))
			return nil
		})
		go drainReads(conn)

		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case entry, ok := <-ch:
				if !ok {
					return
				}
				if err := conn.WriteJSON(entry); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	})
}

// drainReads discards client frames, just enough to keep the connection's
// read deadline serviced and notice when the client goes away.
func drainReads(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

