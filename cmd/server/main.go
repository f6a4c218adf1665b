package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"farmio/internal/api"
	"farmio/internal/config"
	"farmio/internal/drawer"
	"farmio/internal/engine"
	"farmio/internal/logging"
	"farmio/internal/model"
	"farmio/internal/store"
	"farmio/internal/transport"
)

func main() {
	// Determine base directory
	exe, _ := os.Executable()
	baseDir := filepath.Dir(exe)
	if wd, err := os.Getwd(); err == nil {
		baseDir = wd
	}

	// Load config
	configPath := filepath.Join(baseDir, "config.json")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.ResolvePaths(baseDir)

	// Save default config if not exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg.Save(configPath)
		fmt.Printf("wrote default config: %s\n", configPath)
	}

	// Init database
	s, err := store.New(cfg.DBPath)
	if err != nil {
		fmt.Printf("failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()
	s.CleanOldTurnLogs(7)

	log := logging.New("")
	dw := drawer.New(cfg.DrawerDir)

	defaults := engine.Settings{
		PlayerCount:    cfg.DefaultPlayerCount,
		TurnDurationMs: cfg.DefaultTurnDurationMs,
		MapSize:        cfg.DefaultMapSize,
	}
	onTurn := func(gameName string, turn, actions int) {
		s.AddTurnLog(&model.TurnLog{GameName: gameName, Turn: turn, Actions: actions})
	}
	reg := engine.NewRegistry(log, dw, defaults, onTurn)

	ctx, cancel := context.WithCancel(context.Background())

	listener, err := net.Listen("tcp", cfg.GameListen)
	if err != nil {
		fmt.Printf("failed to listen on %s: %v\n", cfg.GameListen, err)
		os.Exit(1)
	}
	acceptor := transport.NewAcceptor(listener, reg, log)
	go acceptor.Run(ctx)

	router := api.SetupRouter(cfg, s, reg, log)

	fmt.Printf("========================================\n")
	fmt.Printf("  farmio server\n")
	fmt.Printf("  game listen:  %s\n", cfg.GameListen)
	fmt.Printf("  admin listen: %s\n", cfg.AdminListen)
	fmt.Printf("  data dir:     %s\n", cfg.DataDir)
	fmt.Printf("========================================\n")

	// Graceful shutdown
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		fmt.Println("\nshutting down...")
		cancel()
		listener.Close()
		os.Exit(0)
	}()

	if err := router.Run(cfg.AdminListen); err != nil {
		fmt.Printf("admin HTTP server failed: %v\n", err)
		os.Exit(1)
	}
}
