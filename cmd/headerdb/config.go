package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ethergate/headerdb/config"
	"github.com/ethergate/headerdb/internal/flags"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.DataCategory,
	}
	dataDirFlag = &cli.StringFlag{
		Name:     "datadir",
		Usage:    "Data directory for the header database",
		Category: flags.DataCategory,
	}
	logVerbosityFlag = &cli.StringFlag{
		Name:     "log.level",
		Usage:    "Logging verbosity: trace, debug, info, warn, error, crit",
		Value:    "info",
		Category: flags.LogCategory,
	}
	logFileFlag = &cli.StringFlag{
		Name:     "log.file",
		Usage:    "Write logs to this file (rotated) instead of stderr",
		Category: flags.LogCategory,
	}
)

// loadConfig builds the effective configuration: defaults, then an
// optional TOML file, then command line flags, in that order — the same
// precedence cmd/mive/config.go's loadBaseConfig applies.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.Default()

	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := config.Load(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(dataDirFlag.Name) {
		cfg.DataDir = flags.ExpandHome(ctx.String(dataDirFlag.Name))
	}
	if ctx.IsSet(logVerbosityFlag.Name) {
		cfg.LogVerbosity = ctx.String(logVerbosityFlag.Name)
	}
	if ctx.IsSet(logFileFlag.Name) {
		cfg.LogFile = ctx.String(logFileFlag.Name)
	}
	return cfg, nil
}

// initLogging wires go-ethereum/log to a colorized terminal handler or,
// when a log file is configured (LogFile or log.file), a rotating file
// sink — the same choice cmd/utils/flags.go makes when deciding whether
// stderr supports color.
func initLogging(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	level, err := parseLevel(cfg.LogVerbosity)
	if err != nil {
		return err
	}

	var output io.Writer = os.Stderr
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	if useColor {
		output = colorable.NewColorableStderr()
	}

	if file := cfg.LogFile; file != "" {
		output = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
		}
		useColor = false
	}

	handler := log.NewTerminalHandlerWithLevel(output, level, useColor)
	log.SetDefault(log.NewLogger(handler))
	return nil
}

// parseLevel maps the --log.level flag's textual verbosity names onto
// go-ethereum/log's slog-compatible level constants.
func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
