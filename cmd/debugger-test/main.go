package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/josharian/debugo/internal/config"
	"github.com/josharian/debugo/internal/harness"
)

var (
	verbose    bool
	debug      bool
	noGdb      bool
	noLldb     bool
	configPath string

	logger *zap.Logger
)

// errTestsFailed makes the process exit non-zero after the reports
// have already been printed.
var errTestsFailed = errors.New("tests failed")

var rootCmd = &cobra.Command{
	Use:   "debugger-test [flags] <test-cases>",
	Short: "Run automated tests of Go's gdb and lldb support",
	Long: `debugger-test runs automated tests of Go's gdb and lldb integration.

Each test case is a Go source file annotated with BREAKPOINT comment
groups. The file is built with optimizations disabled, then run under
every available debugger; at each breakpoint the listed commands run and
their output is matched against the expected regular expressions.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if debug {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runTests,
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every result, not only failures")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "print lots of debug goop and keep the temp dir")
	rootCmd.Flags().BoolVar(&noGdb, "no-gdb", false, "skip gdb")
	rootCmd.Flags().BoolVar(&noLldb, "no-lldb", false, "skip lldb")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}
	if noGdb {
		cfg.Skip = append(cfg.Skip, "gdb")
	}
	if noLldb {
		cfg.Skip = append(cfg.Skip, "lldb")
	}
	if debug {
		cfg.KeepTemp = true
	}
	return cfg, nil
}

func runTests(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := harness.New(ctx, cfg, logger, harness.WithOutput(cmd.OutOrStdout()), harness.WithVerbose(verbose))
	if err != nil {
		return err
	}
	defer func() {
		if err := h.Close(); err != nil {
			logger.Warn("failed to clean up temp dir", zap.Error(err))
		}
	}()
	logger.Debug("debuggers", zap.Strings("names", h.Debuggers()))

	reports, err := h.Run(ctx, args)
	if err != nil {
		return err
	}
	for _, rep := range reports {
		if !rep.OK() {
			return errTestsFailed
		}
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errTestsFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
