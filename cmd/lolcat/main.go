// Package main parses and validates the flags and input passed to the program, and then
// colors the named sources with a rainbow gradient using the internal app.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jkbrsn/lolcat"
	"github.com/jkbrsn/lolcat/internal/app"
)

var (
	// Gradient
	frequencyFlag = newTrackedFloatFlag(lolcat.DefaultFrequency)
	spreadFlag    = newTrackedFloatFlag(lolcat.DefaultSpread)
	seedFlag      = newTrackedIntFlag(0)
	// Input
	headerArguments headerList
	tabWidthFlag    = newTrackedIntFlag(app.DefaultTabWidth)
	textMessage     = flag.String("text", "",
		"a text message to send after connecting to a WebSocket source")
	timeout = flag.Duration("timeout", 0,
		"stop reading a WebSocket source after this long without a message; 0 waits indefinitely")
	// Output
	colorArg = flag.String("color", "",
		"when to color output: auto, always, or never (default auto)")
	force       = flag.Bool("force", false, "color output even when it is not a terminal")
	graphemes   = flag.Bool("graphemes", false, "color grapheme clusters, align tabs to columns")
	workersFlag = newTrackedIntFlag(1)
	// Program
	configPath     = flag.String("config", "", "path to a YAML configuration file")
	showVersion    = flag.Bool("version", false, "print the program version")
	verbosityLevel = newVerbosityCounter()
	version        = "unknown"
)

func init() {
	registerFlags()

	// Define custom usage message
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintln(out, "Usage:  lolcat [options] [file | - | ws-url ...]")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "With no file, or when file is -, read standard input.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Gradient options:")
		fmt.Fprintln(out, "  -F, -freq       "+flag.Lookup("freq").Usage)
		fmt.Fprintln(out, "  -p, -spread     "+flag.Lookup("spread").Usage)
		fmt.Fprintln(out, "  -S, -seed       "+flag.Lookup("seed").Usage)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Output options:")
		fmt.Fprintln(out, "  -color          "+flag.Lookup("color").Usage)
		fmt.Fprintln(out, "  -f, -force      "+flag.Lookup("force").Usage)
		fmt.Fprintln(out, "  -graphemes      "+flag.Lookup("graphemes").Usage)
		fmt.Fprintln(out, "  -tab-width      "+flag.Lookup("tab-width").Usage)
		fmt.Fprintln(out, "  -workers        "+flag.Lookup("workers").Usage)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "WebSocket options:")
		fmt.Fprintln(out, "  -H, -header     "+flag.Lookup("header").Usage)
		fmt.Fprintln(out, "  -text           "+flag.Lookup("text").Usage)
		fmt.Fprintln(out, "  -timeout        "+flag.Lookup("timeout").Usage)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Other options:")
		fmt.Fprintln(out, "  -config         "+flag.Lookup("config").Usage)
		fmt.Fprintln(out, "  -v              "+flag.Lookup("v").Usage)
		fmt.Fprintln(out, "  -version        "+flag.Lookup("version").Usage)
	}
}

// registerFlags registers the flag.Value flags and the short aliases.
func registerFlags() {
	flag.Var(&frequencyFlag, "freq", "rainbow frequency (default 0.1)")
	flag.Var(&frequencyFlag, "F", "alias for -freq")
	flag.Var(&spreadFlag, "spread", "rainbow spread (default 3)")
	flag.Var(&spreadFlag, "p", "alias for -spread")
	flag.Var(&seedFlag, "seed", "starting line offset of the rainbow (default random)")
	flag.Var(&seedFlag, "S", "alias for -seed")
	flag.BoolVar(force, "f", false, "alias for -force")
	flag.Var(&tabWidthFlag, "tab-width", "number of columns between tab stops (default 8)")
	flag.Var(&workersFlag, "workers",
		"number of lines rendered concurrently; values above 1 render in batches (default 1)")
	flag.Var(&headerArguments, "header",
		"HTTP header for WebSocket sources in 'Key: Value' format; repeatable")
	flag.Var(&headerArguments, "H", "alias for -header")
	flag.Var(verbosityLevel, "v", "increase log verbosity; repeat as -vv for debug output")
}

func main() {
	preprocessVerbosityArgs()

	cfg, err := parseConfig()
	if errors.Is(err, errVersionRequested) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing input: %v\n\n", err)
		flag.Usage()
		os.Exit(1)
	}

	logger := newLogger(cfg.Verbosity)

	c := app.Colorizer{
		Params:      cfg.Params,
		TabWidth:    cfg.TabWidth,
		Headers:     cfg.Headers,
		TextMessage: cfg.TextMessage,
		Timeout:     cfg.Timeout,
		ColorMode:   cfg.ColorMode,
		Graphemes:   cfg.Graphemes,
		Workers:     cfg.Workers,
		Logger:      &logger,
	}

	if err := c.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error in input settings: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = c.Run(ctx, cfg.Sources)
	cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error colorizing input: %v\n", err)
		os.Exit(1)
	}
}
