package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	verbose    bool
	configPath string

	// cfg and logger are set by the root PersistentPreRunE.
	cfg    *Config
	logger = slog.Default()
	logOut io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voicenote",
	Short: "Record, list and play back short voice notes",
	Long: `Voicenote records titled audio notes into a directory of WAV files.
Run it without a subcommand to open an interactive session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := LoadConfig(configPath, cmd)
		if err != nil {
			return err
		}
		cfg = c
		logger, logOut = newLogger(c.Log, verbose, cmd.ErrOrStderr())
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logOut != nil {
			logOut.Close()
		}
	},
	RunE: runSessionCmd,
}

// newLogger builds a text logger on stderr, or a JSON logger on a rotated
// file when a log file is configured.
func newLogger(c LogConfig, verbose bool, stderr io.Writer) (*slog.Logger, io.Closer) {
	level := c.Level
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{
		Level: level,
	}

	if c.File == "" {
		return slog.New(slog.NewTextHandler(stderr, opts)), nil
	}

	rotated := &lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAgeDays,
		Compress:   true,
	}
	return slog.New(slog.NewJSONHandler(rotated, opts)), rotated
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signalContext()
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("dir", DefaultDir, "Directory holding the audio files")
	rootCmd.PersistentFlags().String("adapter", DefaultAdapter, "Audio adapter: fs, shell or memory")
}
