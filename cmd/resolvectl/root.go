package main

import (
	"fmt"
	"log/slog"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

// newRootCommand builds the resolvectl command tree. Logging flags are
// registered persistently on the root the way the teacher's CLI registers
// its loglevel/logformat flags, and every subcommand retrieves its logger
// from the command rather than a package global.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "resolvectl",
		Short:             "Resolve artifact coordinates against a workspace, local cache, and remote repositories",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	registerLoggingFlags(root)
	root.AddCommand(newResolveCommand())

	return root
}

const (
	flagLogLevel  = "loglevel"
	flagLogFormat = "logformat"
)

func registerLoggingFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(flagLogLevel, "warn", "set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().String(flagLogFormat, "text", "set the log format (text, json)")
}

// loggerFromFlags builds an slog.Logger from the persistent logging flags
// and bridges it to logr.Logger, the interface package resolve consumes.
func loggerFromFlags(cmd *cobra.Command) (logr.Logger, error) {
	levelFlag, err := cmd.Flags().GetString(flagLogLevel)
	if err != nil {
		return logr.Logger{}, err
	}
	var level slog.Level
	switch levelFlag {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return logr.Logger{}, fmt.Errorf("invalid log level: %s", levelFlag)
	}

	formatFlag, err := cmd.Flags().GetString(flagLogFormat)
	if err != nil {
		return logr.Logger{}, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch formatFlag {
	case "json":
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	case "text":
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	default:
		return logr.Logger{}, fmt.Errorf("invalid log format: %s", formatFlag)
	}

	return logr.FromSlogHandler(handler), nil
}
