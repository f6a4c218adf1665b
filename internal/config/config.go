package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type Config struct {
	// Game wire protocol
	GameListen string `json:"game_listen"`

	// Admin HTTP surface
	AdminListen string `json:"admin_listen"`
	JWTSecret   string `json:"jwt_secret"`
	DBPath      string `json:"db_path"`
	AdminUser   string `json:"admin_user"`
	AdminPass   string `json:"admin_pass"`

	// Game defaults, used when a NewGame message omits a setting
	DefaultMapSize        int `json:"default_map_size"`
	DefaultTurnDurationMs int `json:"default_turn_duration_ms"`
	DefaultPlayerCount    int `json:"default_player_count"`

	// Drawer
	DrawerDir string `json:"drawer_dir"`

	// Paths
	DataDir string `json:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		GameListen:            "127.0.0.1:5942",
		AdminListen:           "0.0.0.0:8080",
		JWTSecret:             "farmio-secret-change-me",
		DBPath:                "data/farmio.db",
		AdminUser:             "admin",
		AdminPass:             "admin123",
		DefaultMapSize:        16,
		DefaultTurnDurationMs: 2000,
		DefaultPlayerCount:    2,
		DrawerDir:             "data/drawer",
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) ResolvePaths(baseDir string) {
	c.DataDir = filepath.Join(baseDir, "data")
	if !filepath.IsAbs(c.DBPath) {
		c.DBPath = filepath.Join(baseDir, c.DBPath)
	}
	if !filepath.IsAbs(c.DrawerDir) {
		c.DrawerDir = filepath.Join(baseDir, c.DrawerDir)
	}
	os.MkdirAll(c.DataDir, 0755)
	os.MkdirAll(c.DrawerDir, 0755)
}

func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	os.MkdirAll(filepath.Dir(path), 0755)
	return os.WriteFile(path, data, 0644)
}
