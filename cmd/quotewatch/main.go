package main

import (
	"fmt"
	"os"
	"strings"

	"quotewatch/internal/cli"
	"quotewatch/internal/config"
	"quotewatch/internal/logging"
)

// configDirArg pre-scans the arguments for the --config flag so the config
// can load before cobra parses anything. Both flag forms are accepted.
func configDirArg(args []string) string {
	dir := ""
	for i, arg := range args {
		switch {
		case arg == "--config" && i+1 < len(args):
			dir = args[i+1]
		case strings.HasPrefix(arg, "--config="):
			dir = strings.TrimPrefix(arg, "--config=")
		}
	}
	return dir
}

func main() {
	cfg, err := config.Load(configDirArg(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "quotewatch: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLoggerWithConfig(logging.LogConfig{
		Level:      cfg.Log.Level,
		Console:    cfg.Log.Console,
		File:       cfg.Log.File,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	})

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
