// textra - A terminal chat client for Gemini and DeepSeek models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	textrachat "github.com/textra-ai/textra/internal/chat"
	"github.com/textra-ai/textra/internal/config"
	"github.com/textra-ai/textra/internal/deepseek"
	"github.com/textra-ai/textra/internal/gateway"
	"github.com/textra-ai/textra/internal/gemini"
	"github.com/textra-ai/textra/internal/store"
	"github.com/textra-ai/textra/internal/ui/chat"
	"github.com/textra-ai/textra/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		modelFlag   = flag.String("model", "", "model to chat with (overrides config)")
		configFlag  = flag.String("config", "", "path to config file")
		stateFlag   = flag.String("state-dir", "", "directory for persisted sessions")
		versionFlag = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("textra %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*modelFlag, *configFlag, *stateFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(modelFlag, configPath, stateDir string) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	modelID := cfg.DefaultModel
	if modelFlag != "" {
		modelID = modelFlag
	}

	var st *store.Store
	if stateDir != "" {
		st, err = store.NewWithDir(stateDir)
	} else {
		st, err = store.New()
	}
	if err != nil {
		return err
	}

	// All logging goes to a file; the TTY belongs to the TUI.
	logFile, err := os.OpenFile(filepath.Join(st.Dir, "textra.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err == nil {
		defer logFile.Close()
		log.SetOutput(logFile)
	} else {
		log.SetOutput(io.Discard)
	}

	client := newClient(cfg, modelID)

	machine := textrachat.New(client, st, modelID, config.SystemPrompt)
	machine.Load()

	dark := loadDarkness(st, cfg)

	program := tea.NewProgram(
		chat.New(machine, st, dark),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = program.Run()
	return err
}

// newClient picks the provider by model prefix.
func newClient(cfg *config.Config, modelID string) gateway.Client {
	if config.IsDeepSeekModel(modelID) {
		c := deepseek.NewClient(cfg.DeepSeek.APIKey)
		if cfg.DeepSeek.BaseURL != "" {
			c.WithBaseURL(cfg.DeepSeek.BaseURL)
		}
		return c
	}
	c := gemini.NewClient(cfg.Gemini.APIKey)
	if cfg.Gemini.BaseURL != "" {
		c.WithBaseURL(cfg.Gemini.BaseURL)
	}
	return c
}

// loadDarkness resolves the theme: saved preference, then config, then the
// terminal background.
func loadDarkness(st *store.Store, cfg *config.Config) bool {
	if theme, err := st.LoadTheme(); err == nil {
		return theme == store.ThemeDark
	} else if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrCorrupted) {
		fmt.Fprintf(os.Stderr, "Warning: could not load theme preference: %v\n", err)
	}
	if cfg.UI.Theme != "" {
		return cfg.UI.Theme == "dark"
	}
	return styles.DetectDark()
}
