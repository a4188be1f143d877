package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/jkbrsn/lolcat"
	"gopkg.in/yaml.v3"
)

// seedRange is the exclusive upper bound of a randomly chosen starting offset.
const seedRange = 256

// Config holds all configuration parsed from command-line flags and the config file.
type Config struct {
	Params      lolcat.Params
	Sources     []string
	Headers     []string
	TextMessage string
	Timeout     time.Duration
	TabWidth    int
	Workers     int
	ColorMode   string
	Graphemes   bool
	Verbosity   int
}

// fileConfig mirrors the YAML configuration file. Pointer fields distinguish an absent key
// from a zero value.
type fileConfig struct {
	Frequency *float64      `yaml:"frequency"`
	Spread    *float64      `yaml:"spread"`
	Seed      *int          `yaml:"seed"`
	Color     string        `yaml:"color"`
	Graphemes *bool         `yaml:"graphemes"`
	TabWidth  *int          `yaml:"tab_width"`
	Workers   *int          `yaml:"workers"`
	Headers   []string      `yaml:"headers"`
	Timeout   time.Duration `yaml:"timeout"`
}

// parseConfig parses command-line flags and returns a validated Config. Flags set on the
// command line take precedence over the config file, which takes precedence over defaults.
func parseConfig() (*Config, error) {
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, err
	}

	if *showVersion {
		fmt.Printf("lolcat %s\n", version)
		return nil, errVersionRequested
	}

	file := &fileConfig{}
	if *configPath != "" {
		var err error
		file, err = loadFileConfig(*configPath)
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Params:    lolcat.DefaultParams(),
		Sources:   flag.Args(),
		TabWidth:  tabWidthFlag.Value(),
		Workers:   workersFlag.Value(),
		ColorMode: "auto",
		Verbosity: verbosityLevel.Value(),
	}
	seedSet := applyFileConfig(cfg, file)

	if frequencyFlag.WasSet() {
		cfg.Params.Frequency = frequencyFlag.Value()
	}
	if spreadFlag.WasSet() {
		cfg.Params.Spread = spreadFlag.Value()
	}
	if seedFlag.WasSet() {
		cfg.Params.Start = seedFlag.Value()
		seedSet = true
	}
	if tabWidthFlag.WasSet() {
		cfg.TabWidth = tabWidthFlag.Value()
	}
	if workersFlag.WasSet() {
		cfg.Workers = workersFlag.Value()
	}
	if flagWasSet("timeout") {
		cfg.Timeout = *timeout
	}
	if flagWasSet("graphemes") {
		cfg.Graphemes = *graphemes
	}
	if flagWasSet("text") {
		cfg.TextMessage = *textMessage
	}
	cfg.Headers = append(cfg.Headers, headerArguments.Values()...)

	if *colorArg != "" {
		cfg.ColorMode = strings.ToLower(*colorArg)
	}
	switch cfg.ColorMode {
	case "auto", "always", "never":
		// valid
	default:
		return nil, errors.New("-color must be auto, always, or never")
	}
	if *force {
		if cfg.ColorMode == "never" && *colorArg != "" {
			return nil, errors.New("-force cannot be combined with -color never")
		}
		cfg.ColorMode = "always"
	}

	if !seedSet {
		cfg.Params.Start = rand.Intn(seedRange)
	}

	return cfg, nil
}

// applyFileConfig copies the values present in the config file onto cfg. It reports whether
// the file set the seed.
func applyFileConfig(cfg *Config, file *fileConfig) bool {
	if file.Frequency != nil {
		cfg.Params.Frequency = *file.Frequency
	}
	if file.Spread != nil {
		cfg.Params.Spread = *file.Spread
	}
	if file.TabWidth != nil {
		cfg.TabWidth = *file.TabWidth
	}
	if file.Workers != nil {
		cfg.Workers = *file.Workers
	}
	if file.Graphemes != nil {
		cfg.Graphemes = *file.Graphemes
	}
	if file.Color != "" {
		cfg.ColorMode = strings.ToLower(file.Color)
	}
	if file.Timeout != 0 {
		cfg.Timeout = file.Timeout
	}
	cfg.Headers = append(cfg.Headers, file.Headers...)

	if file.Seed != nil {
		cfg.Params.Start = *file.Seed
		return true
	}
	return false
}

// loadFileConfig reads the YAML config file at path. Unknown keys are rejected.
func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var file fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return &file, nil
}

// flagWasSet reports whether the named flag was given on the command line.
func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// errVersionRequested is returned when -version flag is used.
var errVersionRequested = errors.New("version requested")
