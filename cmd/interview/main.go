package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loqalabs/loqa-interview/internal/client"
	"github.com/loqalabs/loqa-interview/internal/config"
	"github.com/loqalabs/loqa-interview/internal/questions"
	"github.com/loqalabs/loqa-interview/internal/runtime"
	"github.com/loqalabs/loqa-interview/internal/session"
	"github.com/loqalabs/loqa-interview/internal/speech"
	"github.com/loqalabs/loqa-interview/internal/tui"
)

func main() {
	var (
		configPath string
		serverURL  string
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&serverURL, "server", "", "Interview server URL (overrides client.server_url)")
	flag.Parse()

	if err := run(configPath, serverURL); err != nil {
		fmt.Fprintln(os.Stderr, "interview:", err)
		os.Exit(1)
	}
}

func run(configPath, serverURL string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if serverURL != "" {
		cfg.Client.ServerURL = serverURL
	}

	logFile, err := os.OpenFile(cfg.Client.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := runtime.NewLogger(logFile, cfg.Telemetry.LogLevel)

	capture, err := speech.New(cfg.Speech, logger)
	if err != nil {
		return err
	}

	api := client.New(cfg.Client)
	picker := questions.NewPicker()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	bank, err := api.Questions(ctx)
	cancel()
	if err != nil {
		logger.Warn("using built-in question bank", slog.String("error", err.Error()))
	} else {
		picker = questions.NewListPicker(bank)
	}

	autoAdvance := time.Duration(cfg.Session.AutoAdvanceMS) * time.Millisecond
	ctrl := session.NewController(api, picker, capture, autoAdvance, logger)
	defer ctrl.Close()
	ctrl.Shuffle()

	p := tea.NewProgram(tui.New(ctrl, autoAdvance), tea.WithAltScreen())
	detach := tui.Attach(p, ctrl)
	defer detach()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
