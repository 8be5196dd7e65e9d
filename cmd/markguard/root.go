package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/Tributary-ai-services/Markguard/pkg/logger"
	"github.com/Tributary-ai-services/Markguard/pkg/scan"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitFindings     = 1
	ExitUsageError   = 2
	ExitRuntimeError = 3
)

// runtimeError marks failures that are not the caller's fault
type runtimeError struct {
	err error
}

func (e runtimeError) Error() string { return e.err.Error() }
func (e runtimeError) Unwrap() error { return e.err }

type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// exitCode is set by command handlers to control the process exit code
	exitCode int

	logLevel    string
	concurrency int
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	a := &app{in: in, out: out, errOut: errOut}

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	if err := root.Execute(); err != nil {
		// Cobra already prints the error
		var rt runtimeError
		if errors.As(err, &rt) {
			return ExitRuntimeError
		}
		return ExitUsageError
	}
	return a.exitCode
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "markguard",
		Short:         "Detect PII, classification markings and CUI in free text",
		Long:          "Markguard scans free text for PII, classification markings and CUI markings before it is stored or sent to an LLM provider.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().IntVar(&a.concurrency, "concurrency", 1, "Number of fields scanned in parallel")

	root.AddCommand(
		a.scanCmd(),
		a.redactCmd(),
		a.summarizeCmd(),
		a.checkLLMCmd(),
		a.rulesCmd(),
		a.versionCmd(),
	)
	return root
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print markguard version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "markguard version %s (built %s)\n", Version, BuildTime)
		},
	}
}

func (a *app) scanner() *scan.Scanner {
	return scan.NewScanner(scan.WithConcurrency(a.concurrency))
}

func (a *app) logger() (*logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  a.logLevel,
		Format: "console",
		Output: zapcore.AddSync(a.errOut),
	})
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	return log, nil
}

// readInput joins positional arguments, or reads stdin when there are none
func (a *app) readInput(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(a.in)
	if err != nil {
		return "", runtimeError{fmt.Errorf("reading stdin: %w", err)}
	}
	return string(data), nil
}

// parseFieldFlags turns name=text pairs into ordered fields
func parseFieldFlags(pairs []string) (scan.ScanFields, error) {
	fields := make(scan.ScanFields, 0, len(pairs))
	for _, pair := range pairs {
		name, text, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --field %q: want name=text", pair)
		}
		fields = append(fields, scan.Field{Name: name, Text: text})
	}
	return fields, nil
}
