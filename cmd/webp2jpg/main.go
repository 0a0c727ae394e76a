package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"webp2jpg/internal/classifier"
	"webp2jpg/internal/config"
	"webp2jpg/internal/manager"
	"webp2jpg/internal/models"
	"webp2jpg/internal/report"
	"webp2jpg/internal/util"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitConfig  = 2
	exitAborted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	// Application start time
	startTime := time.Now()

	outDir := flag.String("out", config.DefaultOutputDir, "Output directory for converted files")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	diagnose := flag.Bool("diagnose", false, "Show diagnostic information")
	noProgress := flag.Bool("no-progress", false, "Print plain log lines instead of a progress bar")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file.webp|archive.zip|directory>...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := &config.Config{
		OutputDir:  *outDir,
		Inputs:     flag.Args(),
		Verbose:    *verbose,
		Diagnose:   *diagnose,
		NoProgress: *noProgress,
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		return exitConfig
	}

	fmt.Printf("WebP to JPG converter\n")

	if cfg.Diagnose {
		util.LogDiagnostics(logger, startTime)
	}

	items, rejected := classifier.ClassifyAll(cfg.Inputs)
	printRejected(rejected)

	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "Error: nothing to convert")
		return exitConfig
	}

	fmt.Printf("Items: %d\n", len(items))
	fmt.Printf("Output directory: %s\n", cfg.OutputDir)

	ctrl, err := manager.NewController(logger, manager.DefaultEventBuffer)
	if err != nil {
		logger.Error("failed to create controller", "error", err)
		return exitConfig
	}
	defer ctrl.Close()

	events, err := ctrl.Start(items, cfg.OutputDir)
	if err != nil {
		var dirErr *models.OutputDirError
		if errors.As(err, &dirErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			logger.Error("failed to start conversion", "error", err)
		}
		return exitConfig
	}

	// Interrupting a running job needs a second signal to confirm
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		if ctrl.State() == models.StateRunning {
			fmt.Fprintln(os.Stderr, "\nConversion in progress. Press Ctrl+C again to quit anyway.")
			<-sigChan
		}
		fmt.Fprintln(os.Stderr, "\nAborted.")
		os.Exit(exitAborted)
	}()

	result := report.NewConsole(os.Stdout, !cfg.NoProgress).Consume(events)

	elapsed := time.Since(startTime).Round(time.Millisecond)
	fmt.Printf("\nProcessing completed in %s\n", elapsed)
	fmt.Printf("Items: %d succeeded, %d failed\n", result.Succeeded, result.Failed)
	fmt.Printf("Images: %d converted, %d failed\n", result.ImagesConverted, result.ImagesFailed)

	if cfg.Diagnose {
		util.LogDiagnostics(logger, startTime)
	}

	if result.Overall() != models.OutcomeSuccess {
		return exitFailed
	}
	return exitOK
}

// printRejected reports inputs that never reached the job
func printRejected(rejected []classifier.Rejected) {
	if len(rejected) == 0 {
		return
	}

	fmt.Printf("Passed over %d items:\n", len(rejected))
	for _, r := range rejected {
		name := filepath.Base(r.Path)
		switch {
		case r.Skipped():
			fmt.Printf("  %s - already jpg/png, skipped\n", name)
		case errors.Is(r.Err, models.ErrItemNotFound):
			fmt.Printf("  %s - not found\n", name)
		default:
			fmt.Printf("  %s - unsupported file type\n", name)
		}
	}
}
