package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"study-assistant/internal/app"
	"study-assistant/internal/config"
	"study-assistant/internal/logger"
	"study-assistant/internal/terminal"
)

// flags holds command-line values; only flags the user set override config
type flags struct {
	configPath string
	baseURL    string
	timeout    time.Duration
	logLevel   string
	logFile    string
	plain      bool
	verbose    bool
	noSources  bool
}

func main() {
	// Set the GetEnv function for config
	config.GetEnv = os.Getenv

	// Parse command-line flags
	f, set := parseFlags()

	cfg, err := loadConfig(f, set)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// The chat screen owns the terminal, so logs go to stderr only in
	// verbose plain mode.
	sink := cfg.LogFile
	if cfg.Verbose && (cfg.Plain || !terminal.IsTerminal()) {
		sink = "stderr"
	}
	closeLog, err := logger.Init(cfg.LogLevel, sink)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if cfg.Verbose {
		logger.Log.Info("configuration loaded", "summary", app.Describe(cfg))
	}

	a, err := app.New(cfg, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup error: %v\n", err)
		os.Exit(1)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		logger.Log.Error("session ended with error", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

// parseFlags parses command-line flags and reports which were given
func parseFlags() (flags, map[string]bool) {
	var f flags

	flag.StringVar(&f.configPath, "config", config.DefaultPath(), "Path to YAML config file")
	flag.StringVar(&f.baseURL, "url", "", "Backend base URL (default http://localhost:8000)")
	flag.DurationVar(&f.timeout, "timeout", 0, "Ask request timeout, e.g. 30s")
	flag.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&f.logFile, "log-file", "", "Log file path")
	flag.BoolVar(&f.plain, "plain", false, "Use the line-oriented interface even on a terminal")
	flag.BoolVar(&f.verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&f.noSources, "no-sources", false, "Hide source snippets under answers")

	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set
}

// loadConfig layers defaults, config file, .env, environment and flags
func loadConfig(f flags, set map[string]bool) (*config.Config, error) {
	cfg := config.NewConfig()

	if err := cfg.LoadFile(f.configPath); err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if set["url"] {
		cfg.BaseURL = f.baseURL
	}
	if set["timeout"] {
		cfg.Timeout = f.timeout
	}
	if set["log-level"] {
		cfg.LogLevel = f.logLevel
	}
	if set["log-file"] {
		cfg.LogFile = f.logFile
	}
	if set["plain"] {
		cfg.Plain = f.plain
	}
	if set["verbose"] {
		cfg.Verbose = f.verbose
	}
	if f.noSources {
		cfg.ShowSources = false
	}
	return cfg, nil
}
