// Package config reads the command line of the relcore binary.
package config

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"relcore/pkg/cursor"
	"relcore/pkg/execution/setops"
	"relcore/pkg/logging"
)

// Configuration is everything the binary can be told on its command line.
type Configuration struct {
	LogLevel  logging.LogLevel
	LogFormat string
	LogPath   string
	SeqURL    string

	// Seed seeds the execution context's random source.
	Seed int64
	// Elaboration enables reference derivation in bound cursors.
	Elaboration bool
	// Difference is the algorithm Difference operators are bound with.
	Difference setops.DifferenceAlgorithm

	// Browse starts the interactive cursor browser after the scenarios run.
	Browse bool
}

// Load parses args, which exclude the program name. Usage and parse errors
// are written to output.
func Load(args []string, output io.Writer) (Configuration, error) {
	var (
		config     Configuration
		level      string
		difference string
	)

	fs := flag.NewFlagSet("relcore", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&level, "log-level", "INFO", "Log level: DEBUG, INFO, WARN or ERROR")
	fs.StringVar(&config.LogFormat, "log-format", "text", "Log format: text or json")
	fs.StringVar(&config.LogPath, "log", "", "Log file path (empty logs to stdout)")
	fs.StringVar(&config.SeqURL, "seq", "", "Seq ingestion URL, e.g. http://localhost:5341")
	fs.Int64Var(&config.Seed, "seed", 1, "Random seed for the execution context")
	fs.BoolVar(&config.Elaboration, "elaborate", true, "Derive references in bound cursors")
	fs.StringVar(&difference, "difference", "auto", "Difference algorithm: auto, searched, scanned or hashed")
	fs.BoolVar(&config.Browse, "browse", false, "Open the interactive cursor browser")

	if err := fs.Parse(args); err != nil {
		return Configuration{}, err
	}
	if fs.NArg() > 0 {
		return Configuration{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	config.LogLevel = logging.LogLevel(strings.ToUpper(level))
	switch config.LogLevel {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return Configuration{}, fmt.Errorf("unknown log level %q", level)
	}
	if config.LogFormat != "text" && config.LogFormat != "json" {
		return Configuration{}, fmt.Errorf("unknown log format %q", config.LogFormat)
	}

	algorithm, err := setops.ParseDifferenceAlgorithm(difference)
	if err != nil {
		return Configuration{}, err
	}
	config.Difference = algorithm
	return config, nil
}

// Logging returns the logger configuration.
func (c Configuration) Logging() logging.Config {
	return logging.Config{
		Level:      c.LogLevel,
		OutputPath: c.LogPath,
		Format:     c.LogFormat,
		SeqURL:     c.SeqURL,
	}
}

// Request returns the cursor request operator trees are bound with.
func (c Configuration) Request() cursor.Request {
	req := cursor.DefaultRequest()
	req.ElaborationEnabled = c.Elaboration
	return req
}
