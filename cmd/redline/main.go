package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kvit-s/redline/internal/config"
	"github.com/kvit-s/redline/internal/engine"
	"github.com/kvit-s/redline/internal/lockfile"
	"github.com/kvit-s/redline/internal/logging"
	"github.com/kvit-s/redline/internal/prompt"
	"github.com/kvit-s/redline/internal/repl"
	"github.com/kvit-s/redline/internal/replay"
	"github.com/kvit-s/redline/internal/tools"
	"github.com/kvit-s/redline/internal/ui"
)

// Version info set by ldflags at build time
var (
	version    = "dev"
	commitHash = "dev"
)

func main() {
	configPath := flag.String("config", "", "path to config file (empty for defaults)")
	docPath := flag.String("doc", "", "document file to review (overrides config)")
	logFile := flag.String("log", "", "log file path (overrides config, empty keeps config value)")
	transcriptPath := flag.String("transcript", "", "replay a recorded session and exit")
	printPrompt := flag.Bool("print-prompt", false, "print the reviewer agent instructions and exit")
	toolsJSON := flag.Bool("tools-json", false, "print the tool schemas as provider-format JSON and exit")
	quiet := flag.Bool("q", false, "suppress informational output")
	showVersion := flag.Bool("version", false, "show version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("redline %s-%s\n", version, commitHash)
		return
	}

	if !config.EngineEnabled() {
		fmt.Fprintln(os.Stderr, "redline engine disabled by REDLINE_ENGINE")
		os.Exit(1)
	}

	writer := ui.NewWriter()
	writer.SetQuiet(*quiet)

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

	logger, closeLog, err := logging.NewLogger(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer closeLog()

	registry := buildRegistry(cfg, writer)

	if *printPrompt || *toolsJSON {
		gen := prompt.NewGenerator(registry)
		if *printPrompt {
			fmt.Print(gen.GenerateSystemPrompt())
		}
		if *toolsJSON {
			out, err := gen.ToolSpecsJSON()
			if err != nil {
				log.Fatalf("Failed to export tool schemas: %v", err)
			}
			fmt.Println(out)
		}
		return
	}

	opts := engine.Options{
		Registry:       registry,
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

	// Replay mode: run the transcript against its own document and report.
	if *transcriptPath != "" {
		runTranscript(*transcriptPath, opts, logger, writer)
		return
	}

	if cfg.Document.Path == "" {
		fmt.Fprintln(os.Stderr, "Usage: redline -doc FILE [options]")
		fmt.Fprintln(os.Stderr, "       redline -transcript FILE [options]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
		os.Exit(1)
	}

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

	opts.GetDocument = func() string { return content }
	opts.SetDocument = func(c string) { content = c }

	eng, err := engine.New(opts)
	if err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	writer.StartupInfo(fmt.Sprintf("redline %s", version))
	writer.StartupInfo(fmt.Sprintf("Document: %s (%d bytes)", cfg.Document.Path, len(content)))
	writer.StartupInfo(fmt.Sprintf("Tools: %s", strings.Join(registry.Names(), ", ")))
	if cfg.Log.Path != "" {
		writer.StartupInfo(fmt.Sprintf("Logs: %s", cfg.Log.Path))
	}

	repl.Run(&repl.Session{
		Engine:  eng,
		Writer:  writer,
		GetDoc:  opts.GetDocument,
		SetDoc:  opts.SetDocument,
		DocPath: cfg.Document.Path,
	})
}

// buildRegistry drops config-disabled tools from the default set.
func buildRegistry(cfg *config.Config, writer *ui.Writer) *tools.Registry {
	registry := tools.DefaultRegistry()
	for _, name := range registry.Names() {
		if !cfg.IsToolEnabled(name) {
			writer.Warn(fmt.Sprintf("tool %s disabled by config", name))
			registry.Unregister(name)
		}
	}
	return registry
}

func runTranscript(path string, opts engine.Options, logger *zap.Logger, writer *ui.Writer) {
	transcript, err := replay.Load(path)
	if err != nil {
		log.Fatalf("Failed to load transcript: %v", err)
	}

	runner := replay.NewRunner(opts, logger)
	report, err := runner.Run(context.Background(), transcript)
	if err != nil {
		log.Fatalf("Replay failed: %v", err)
	}

	name := report.Name
	if name == "" {
		name = path
	}
	writer.StartupInfo(fmt.Sprintf("Replayed %s: %d steps, %d failed (%s)",
		name, len(report.Steps), report.Failed, report.Duration.Round(time.Millisecond)))
	for _, step := range report.Steps {
		status := "ok"
		if !step.OK {
			status = "FAIL"
		}
		writer.ToolResult(fmt.Sprintf("%d %s %s: %s", step.Index, step.Kind, status, step.Detail), "")
	}
	writer.Plain(report.FinalDocument)
	if report.Failed > 0 {
		os.Exit(1)
	}
}
