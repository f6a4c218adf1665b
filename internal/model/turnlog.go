package model

import "time"

// TurnLog is one persisted record of a resolved game turn, kept for admin
// observability only; it is never read back to restore a game.
type TurnLog struct {
	ID        int64     `json:"id"`
	GameName  string    `json:"game_name"`
	Turn      int       `json:"turn"`
	Actions   int       `json:"actions"`
	CreatedAt time.Time `json:"created_at"`
}
