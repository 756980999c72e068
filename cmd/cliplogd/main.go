// cliplogd - infrared remote macro recorder for timeline editing
//
// The daemon decodes remote button presses, classifies press-vs-hold,
// timestamps them against a recording session, and logs timeline insert
// commands to per-session files. A line-oriented console drives mode
// selection, file management, and media-keyboard pairing:
//
//	cliplogd run          Run the daemon (console on stdin/stdout)
//	cliplogd version      Print the version
//	cliplogd help         Show usage
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cliplogd/internal/config"
	"cliplogd/internal/console"
	"cliplogd/internal/keyboard"
	"cliplogd/internal/logging"
	"cliplogd/internal/prefs"
	"cliplogd/internal/remote"
	"cliplogd/internal/session"
	"cliplogd/internal/store"
	"cliplogd/internal/timeline"
)

// Version is the daemon version.
const Version = "1.0.0"

func main() {
	cmd := "run"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "run":
		cmdRun()
	case "version", "-v", "--version":
		fmt.Println("cliplogd " + Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`cliplogd - infrared remote macro recorder

Usage:
  cliplogd run [flags]     Run the daemon
  cliplogd version         Print the version
  cliplogd help            Show this help

Flags for run:
  -config <path>    Configuration file (toml/json/yaml)
  -data <dir>       Data directory override
  -decoder <path>   Serial device or FIFO delivering decoded IR events
  -listen <path>    Serve the console on a Unix socket instead of stdio`)
}

func cmdRun() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "configuration file")
	dataDir := fs.String("data", "", "data directory override")
	decoderPath := fs.String("decoder", "", "decoded IR event source")
	listenPath := fs.String("listen", "", "console Unix socket")
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "run" {
		args = args[1:]
	}
	fs.Parse(args)

	if *dataDir != "" {
		os.Setenv("CLIPLOGD_DATA_DIR", *dataDir)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("load configuration: %v", err)
	}
	if *decoderPath != "" {
		cfg.Remote.DecoderPath = *decoderPath
	}
	if *listenPath != "" {
		cfg.Console.Listen = *listenPath
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fatal("prepare directories: %v", err)
	}

	logger := setupLogging(cfg)
	defer logger.Close()

	// Durable storage is the one thing nothing can run without: a mount
	// failure halts the process.
	st, err := store.Open(cfg.Storage.Dir)
	if err != nil {
		fatal("mount clip store: %v", err)
	}

	pf, err := prefs.Open(cfg.Storage.PrefsPath)
	if err != nil {
		fatal("open preferences: %v", err)
	}
	defer pf.Close()

	d, err := buildDaemon(cfg, st, pf, logger)
	if err != nil {
		fatal("%v", err)
	}
	if d.watcher != nil {
		defer d.watcher.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("daemon starting", "version", Version, "store", cfg.Storage.Dir)

	if cfg.Console.Listen != "" {
		runSocketConsole(ctx, d, cfg.Console.Listen, logger)
		return
	}

	rw := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}

	fmt.Println("Log file base loaded: " + pf.GetString(prefs.KeyLogBase, prefs.DefaultLogBase))
	if err := d.Run(ctx, rw); err != nil && ctx.Err() == nil {
		fatal("console loop: %v", err)
	}
}

// buildDaemon wires the components behind the mode selector.
func buildDaemon(cfg *config.Config, st *store.Store, pf *prefs.Store, logger *logging.Logger) (*daemon, error) {
	km := remote.DefaultKeymap()
	if cfg.Remote.KeymapPath != "" {
		var err error
		if km, err = remote.LoadKeymap(cfg.Remote.KeymapPath); err != nil {
			return nil, fmt.Errorf("load keymap: %w", err)
		}
	}
	classifier := remote.NewClassifier(km, msToDuration(cfg.Remote.HoldThresholdMs))
	allocator := timeline.NewAllocator(msToDuration(cfg.Timeline.StackWindowMs), cfg.Timeline.MaxTracks)

	var kb keyboard.Emulator = &keyboard.Nop{}
	if cfg.Keyboard.Enabled {
		kb = keyboard.New()
	}

	var decoder remote.Decoder
	if cfg.Remote.DecoderPath != "" {
		// O_RDWR keeps a FIFO readable across writer restarts.
		f, err := os.OpenFile(cfg.Remote.DecoderPath, os.O_RDWR, 0)
		if err != nil {
			return nil, fmt.Errorf("open decoder source: %w", err)
		}
		decoder = remote.NewLineDecoder(f)
	}

	// The recorder binds to whichever stream carries the console, so it is
	// built per attachment rather than once.
	sessionCfg := session.Config{
		Naming:         cfg.Session.Naming,
		EndCommand:     cfg.Session.EndCommand,
		TerminatorCode: cfg.Session.TerminatorCode,
		SaveGrace:      msToDuration(cfg.Session.SaveGraceMs),
		SessionKey:     keyboard.Key(cfg.Keyboard.SessionKey),
	}
	newRecorder := func(out io.Writer) *session.Recorder {
		return session.NewRecorder(out, st, pf, kb, decoder, classifier, allocator, nil, sessionCfg)
	}

	watcher, err := st.Watch()
	if err != nil {
		// The console still works without change notifications.
		logger.Warn("store watcher unavailable", "error", err)
		watcher = nil
	}

	return &daemon{
		store:       st,
		prefs:       pf,
		keyboard:    kb,
		decoder:     decoder,
		newRecorder: newRecorder,
		watcher:     watcher,
		log:         logger.WithComponent("daemon"),
	}, nil
}

// runSocketConsole serves the console to one client at a time.
func runSocketConsole(ctx context.Context, d *daemon, path string, logger *logging.Logger) {
	srv, err := console.Listen(path)
	if err != nil {
		fatal("%v", err)
	}
	defer srv.Close()

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	logger.Info("console listening", "socket", path)
	for {
		conn, err := srv.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("console accept failed", "error", err)
			return
		}
		logger.Info("console client attached")
		if err := d.Run(ctx, conn); err != nil && ctx.Err() == nil {
			logger.Warn("console session ended", "error", err)
		}
		conn.Close()
		logger.Info("console client detached")
		if ctx.Err() != nil {
			return
		}
	}
}

func setupLogging(cfg *config.Config) *logging.Logger {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		format = logging.FormatText
	}

	logger, err := logging.New(&logging.Config{
		Level:     level,
		Format:    format,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		Component: "cliplogd",
	})
	if err != nil {
		fatal("setup logging: %v", err)
	}
	logging.SetDefault(logger)
	return logger
}

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "cliplogd: "+format+"\n", args...)
	os.Exit(1)
}
