package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tempmail/internal/app"
	"github.com/nhle/tempmail/internal/mailtm"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/session"
	"github.com/nhle/tempmail/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tempmail:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := model.DefaultConfigPath()
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Seed the config file on first run so users have something to edit.
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := model.SaveConfig(configPath, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "tempmail: writing default config:", err)
		}
	}

	if os.Getenv("TEMPMAIL_DEBUG") != "" {
		f, err := tea.LogToFile("tempmail-debug.log", "tempmail")
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer f.Close()
	}

	// The cache is an offline nicety; a broken cache must not keep the
	// client from running.
	var cache store.Store
	if sqliteStore, err := store.NewSQLiteStore(cfg.Storage.Path); err != nil {
		fmt.Fprintln(os.Stderr, "tempmail: message cache unavailable:", err)
	} else {
		cache = sqliteStore
		defer sqliteStore.Close()
	}

	client := mailtm.NewClient(
		cfg.API.BaseURL,
		time.Duration(cfg.API.TimeoutSec)*time.Second,
	)
	sessions := session.New(client)

	program := tea.NewProgram(
		app.New(cfg, sessions, client, cache),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
