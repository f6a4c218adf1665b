package transport

import "farmio/internal/engine"

// LobbyMsg is the inbound shape tried before falling back to an Action.
type LobbyMsg struct {
	NewGame *struct {
		PlayerName   string          `json:"player_name"`
		PlayerUUID   string          `json:"player_uuid"`
		GameName     string          `json:"game_name"`
		GameSettings engine.Settings `json:"game_settings"`
	} `json:"NewGame"`
	JoinGame *struct {
		PlayerName string `json:"player_name"`
		PlayerUUID string `json:"player_uuid"`
		GameName   string `json:"game_name"`
	} `json:"JoinGame"`
}
