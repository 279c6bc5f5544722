package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/wippyai/script-bridge/bridge"
	"github.com/wippyai/script-bridge/config"
	"github.com/wippyai/script-bridge/domain/luadomain"
	"github.com/wippyai/script-bridge/domain/wasmdomain"
	"github.com/wippyai/script-bridge/internal/telemetry"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to YAML config file")
		image       = flag.String("image", "", "Domain image (.lua, .wasm or an assembly manifest)")
		support     = flag.String("support", "", "Engine support library")
		editor      = flag.Bool("editor", false, "Load in editor mode")
		frames      = flag.Int("frames", 1, "Frames to run in batch mode")
		delta       = flag.Float64("delta", 1.0/60, "Frame delta in seconds")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
		list        = flag.Bool("list", false, "List world-object types and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "image":
			cfg.Image = *image
		case "support":
			cfg.Support = *support
		case "editor":
			cfg.Editor = *editor
		case "frames":
			cfg.Frames = *frames
		case "delta":
			cfg.Delta = float32(*delta)
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Image == "" {
		fmt.Fprintln(os.Stderr, "Usage: bridgehost -image <file> [-frames n] [-delta s] [-editor]")
		fmt.Fprintln(os.Stderr, "       bridgehost -image <file> -list")
		fmt.Fprintln(os.Stderr, "       bridgehost -image <file> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       bridgehost -config bridge.yaml")
		os.Exit(1)
	}

	if *interactive && !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "interactive mode needs a terminal, running in batch mode")
		*interactive = false
	}

	if err := run(cfg, *list, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, listOnly, interactive bool) error {
	ctx := context.Background()

	log, err := cfg.Log.Logger()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	var tail *logTail
	if interactive {
		// The TUI owns the terminal, so log lines go to its tail pane.
		tail = newLogTail(logTailLines)
		if log, err = tail.Logger(cfg.Log.Level); err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
	}
	defer log.Sync()
	luadomain.SetLogger(log.Named("lua"))
	wasmdomain.SetLogger(log.Named("wasm"))

	tp, shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer shutdown(ctx)

	s := newSession(cfg, log, bridge.WithTracerProvider(tp))
	defer s.Close(ctx)

	if err := s.Load(ctx); err != nil {
		return err
	}

	if listOnly {
		fmt.Printf("Domain: %s (generation %d)\n", s.bridge.Generation().Domain, s.bridge.Generation().Number)
		fmt.Printf("Types: %s\n", s.bridge.ListWorldObjectTypeNames())
		if scene := s.bridge.GetStartupSceneName(); scene != "" {
			fmt.Printf("Startup scene: %s\n", scene)
		}
		return nil
	}

	if interactive {
		return runInteractive(s, tail)
	}

	for i := 0; i < cfg.Frames; i++ {
		s.Frame()
	}
	fmt.Printf("Ran %d frame(s), %d live object(s)\n", cfg.Frames, s.bridge.Objects().Len())
	for _, line := range s.Summary() {
		fmt.Println("  " + line)
	}
	return nil
}
