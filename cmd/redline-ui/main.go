package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kvit-s/redline/internal/config"
	"github.com/kvit-s/redline/internal/engine"
	"github.com/kvit-s/redline/internal/lockfile"
	"github.com/kvit-s/redline/internal/logging"
	"github.com/kvit-s/redline/internal/tui"
)

// Version info set by ldflags at build time
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (empty for defaults)")
	docPath := flag.String("doc", "", "document file to review (overrides config)")
	logFile := flag.String("log", "", "log file path (overrides config)")
	showVersion := flag.Bool("version", false, "show version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("redline-ui %s\n", version)
		return
	}

	if !config.EngineEnabled() {
		fmt.Fprintln(os.Stderr, "redline engine disabled by REDLINE_ENGINE")
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *logFile != "" {
		cfg.Log.Path = *logFile
	}
	if *docPath != "" {
		cfg.Document.Path = *docPath
	}
	if cfg.Document.Path == "" {
		fmt.Fprintln(os.Stderr, "Usage: redline-ui -doc FILE [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger, closeLog, err := logging.NewLogger(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer closeLog()

	docLock, err := lockfile.Acquire(cfg.Document.Path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer docLock.Release()

	data, err := os.ReadFile(cfg.Document.Path)
	if err != nil {
		log.Fatalf("Failed to read document: %v", err)
	}
	content := string(data)

	opts := engine.Options{
		GetDocument:    func() string { return content },
		SetDocument:    func(c string) { content = c },
		ToolTimeout:    time.Duration(cfg.Tools.TimeoutSeconds) * time.Second,
		UndoLimit:      cfg.Engine.UndoDepth,
		Logger:         logger,
		MinConfidence:  cfg.Tools.HighlightText.MinConfidence,
		MaxSuggestions: cfg.Tools.HighlightText.MaxSuggestions,
	}
	if cfg.Engine.DriftPolicy == "invalidate" {
		relocate := false
		opts.RelocateOnDrift = &relocate
	}

	eng, err := engine.New(opts)
	if err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	p := tea.NewProgram(tui.New(eng, opts.GetDocument), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("UI error: %v", err)
	}

	// Write edits back on exit.
	if err := os.WriteFile(cfg.Document.Path, []byte(content), 0o644); err != nil {
		log.Fatalf("Failed to save document: %v", err)
	}
}
