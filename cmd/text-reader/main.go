package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/text-reader/internal/config"
	"github.com/ironsheep/text-reader/internal/logging"
	"github.com/ironsheep/text-reader/internal/pipeline"
	"github.com/ironsheep/text-reader/internal/server"
	"github.com/ironsheep/text-reader/internal/speech"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("text-reader %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "text-reader: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("text-reader - capture an image, read the text in it aloud")
	fmt.Println()
	fmt.Println("Usage: text-reader [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from .env):")
	fmt.Println("  READER_CAPTURE_PATH=<file>           Image read on every scan (required)")
	fmt.Println("  READER_LOG_LEVEL=debug               Log level (default info)")
	fmt.Println("  READER_LOG_FILE=<file>               Also log to a rotated file")
	fmt.Println("  READER_DETECTOR=heuristic|remote     Region detector (default heuristic)")
	fmt.Println("  READER_DETECTOR_URL=ws://...         Remote detector endpoint")
	fmt.Println("  READER_RECOGNIZER=tesseract|rekognition")
	fmt.Println("  READER_RECOGNITION_TIMEOUT=30s       Bound on recognizing all regions")
	fmt.Println("  READER_SPEECH_ENGINE=exec|log        Speech output (default exec)")
	fmt.Println("  READER_SPEECH_COMMAND=espeak-ng      Synthesizer for the exec engine")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// stdout is for MCP protocol
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"commit":     GitCommit,
	}).Info("Text reader starting")

	detector, closeDetector, err := newDetector(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDetector()

	recognizer, err := newRecognizer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := speech.NewNotifier(newSpeechEngine(cfg, logger), logger)
	// a failed speech init is logged by the notifier and never fatal
	_ = notifier.Init(ctx)
	defer notifier.Shutdown()

	var srv *server.Server
	p := pipeline.New(pipelineOptions(cfg), pipeline.Dependencies{
		Source:     newSource(cfg),
		Detector:   detector,
		Recognizer: recognizer,
		Notifier:   notifier,
		Listener:   pipeline.ListenerFunc(func(r pipeline.Report) { srv.OnOutcome(r) }),
		Logger:     logger,
	})
	srv = server.New(p, Version, logger)

	pipelineDone := make(chan error, 1)
	go func() { pipelineDone <- p.Run(ctx) }()

	serverDone := make(chan error, 1)
	go func() { serverDone <- srv.Run() }()

	select {
	case err = <-serverDone:
		if err != nil {
			logger.WithError(err).Error("Server error")
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	stop()
	if perr := <-pipelineDone; perr != nil && err == nil {
		err = perr
	}
	return err
}
