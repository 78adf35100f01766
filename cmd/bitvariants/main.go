// Package main implements the CLI driver for the bitvariants generator.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/spf13/cobra"

	"github.com/715d/bitvariants/pkg/bitvariants"
	"github.com/715d/bitvariants/pkg/tap"
)

// Config holds all command-line configuration options.
type Config struct {
	Packages     []string // the Go packages to scan for directives
	Verbose      bool     // enables logging and diagnostic dumps
	JSON         bool     // enables JSON output format
	BuildTags    []string // build tags to use during package loading
	Output       string   // generated file name in each package directory
	Check        bool     // report stale files instead of writing
	Stdout       bool     // print generated code instead of writing
	StringMethod bool     // emit a String method per container
	Color        string   // auto, on or off
	Profile      bool     // enables CPU and memory profiling
}

const (
	exitStale = 1
	exitError = 2
)

var (
	// Set via ldflags during build.
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var cfg Config

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		_ = teardown(nil, nil)
		if err.Error() != "" {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bitvariants [packages...]",
		Short: "Generate single-bit flag constants",
		Long: `bitvariants writes Go constant blocks in which every name gets its own bit.

Declarations come from comment directives in package source:

  //bitvariants:gen pub Perm; uint8; Read, Write, Exec

or from a YAML/TOML manifest (see "bitvariants manifest").`,
		Example: `  bitvariants ./...                # Generate for all packages
  bitvariants --check ./...        # Exit 1 if any generated file is stale
  bitvariants --stdout ./perm      # Print instead of writing
  bitvariants manifest flags.yaml  # Generate from a manifest`,
		Args:               cobra.ArbitraryArgs,
		RunE:               runGenerate,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
		SilenceUsage:       true,
		SilenceErrors:      true,
		Version:            version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("bitvariants version %s\n  commit: %s\n  built:  %s\n", version, gitCommit, buildTime))

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output")
	flags.BoolVar(&cfg.JSON, "json", false, "Output in JSON format")
	flags.StringSliceVar(&cfg.BuildTags, "build-tags", []string{}, "Build tags to use during package loading")
	flags.StringVar(&cfg.Output, "output", bitvariants.DefaultOutputName, "Name of the generated file in each package directory")
	flags.BoolVar(&cfg.Check, "check", false, "Do not write; exit 1 if any generated file is stale")
	flags.BoolVar(&cfg.Stdout, "stdout", false, "Print generated code instead of writing files")
	flags.BoolVar(&cfg.StringMethod, "string-method", true, "Emit a String method for each container type")
	flags.StringVar(&cfg.Color, "color", "auto", "Colorize output: auto, on or off")
	flags.BoolVar(&cfg.Profile, "profile", false, "Enable CPU and memory profiling (writes cpu.prof and mem.prof to current directory)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "manifest FILE",
		Short: "Generate constants from a YAML or TOML manifest",
		Example: `  bitvariants manifest flags.yaml
  bitvariants manifest --check flags.toml`,
		Args: cobra.ExactArgs(1),
		RunE: runManifest,
	})

	return rootCmd
}

func generatorOptions(cfg *Config) bitvariants.Options {
	return bitvariants.Options{
		OutputName:   cfg.Output,
		StringMethod: cfg.StringMethod,
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		cfg.Packages = args
	} else {
		cfg.Packages = []string{"./..."}
	}

	start := time.Now()
	files, err := generateFromPackages(cmd.Context(), &cfg)
	if err != nil {
		return errWithCode(fmt.Errorf("generate: %w", err), exitError)
	}
	return finish(cmd, files, time.Since(start))
}

func generateFromPackages(ctx context.Context, cfg *Config) ([]bitvariants.GeneratedFile, error) {
	slog.Info("loading packages", "packages", cfg.Packages)
	if len(cfg.BuildTags) > 0 {
		slog.Info("using build tags", "tags", cfg.BuildTags)
	}

	pkgs, err := bitvariants.LoadPackages(ctx, bitvariants.LoaderOptions{
		Packages:  cfg.Packages,
		BuildTags: cfg.BuildTags,
	})
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	slog.Info("loaded packages", "num", len(pkgs))

	files, err := bitvariants.NewGenerator(generatorOptions(cfg)).Generate(ctx, pkgs)
	if err != nil {
		return nil, err
	}
	return tap.Log(ctx, nil, files, "generated files"), nil
}

func runManifest(cmd *cobra.Command, args []string) error {
	start := time.Now()

	m, err := bitvariants.LoadManifest(args[0])
	if err != nil {
		return errWithCode(err, exitError)
	}
	tap.DepprintlnDbg(m.Sets, "manifest sets")

	file, err := bitvariants.NewGenerator(generatorOptions(&cfg)).GenerateManifest(m)
	if err != nil {
		return errWithCode(fmt.Errorf("generate: %w", err), exitError)
	}
	return finish(cmd, []bitvariants.GeneratedFile{file}, time.Since(start))
}

// finish writes, checks or prints files according to the mode flags and
// reports the outcome.
func finish(cmd *cobra.Command, files []bitvariants.GeneratedFile, dur time.Duration) error {
	var result *Result
	switch {
	case cfg.Stdout:
		if err := printFiles(cmd.OutOrStdout(), files); err != nil {
			return errWithCode(err, exitError)
		}
		return nil

	case cfg.Check:
		stale, err := bitvariants.CheckFiles(files)
		if err != nil {
			return errWithCode(fmt.Errorf("check: %w", err), exitError)
		}
		result = newResult(files, stale, actionStale, dur)

	default:
		changed, err := bitvariants.CheckFiles(files)
		if err != nil {
			return errWithCode(fmt.Errorf("check: %w", err), exitError)
		}
		if err := bitvariants.WriteFiles(files); err != nil {
			return errWithCode(fmt.Errorf("write: %w", err), exitError)
		}
		result = newResult(files, changed, actionWritten, dur)
	}

	if err := writeResults(cmd.OutOrStdout(), result, &cfg); err != nil {
		return errWithCode(fmt.Errorf("format results: %w", err), exitError)
	}
	slog.Info("generation completed", "files", len(result.Files), "dur", dur)

	if cfg.Check && result.Stats.Changed > 0 {
		return errWithCode(nil, exitStale)
	}
	return nil
}

var cpuProfile *os.File

func setup(cmd *cobra.Command, _ []string) error {
	// Disable logger unless verbose flag is set.
	slog.SetDefault(slog.New(slog.DiscardHandler))
	if cfg.Verbose {
		opts := &slog.HandlerOptions{Level: slog.LevelDebug}
		var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
		if cfg.JSON {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		}
		slog.SetDefault(slog.New(handler))
	}

	if err := applyColorMode(cfg.Color); err != nil {
		return errWithCode(err, exitError)
	}
	tap.SetDefault(tap.New(
		tap.WithStdout(cmd.OutOrStdout()),
		tap.WithStderr(cmd.ErrOrStderr()),
		tap.WithDebug(cfg.Verbose && !cfg.JSON),
		tap.WithColor(colorEnabled()),
	))

	if !cfg.Profile {
		return nil
	}

	var err error
	cpuProfile, err = os.Create("cpu.prof")
	if err != nil {
		return fmt.Errorf("creating cpu.prof: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuProfile); err != nil {
		_ = cpuProfile.Close()
		return fmt.Errorf("starting CPU profile: %w", err)
	}
	slog.Info("cpu profiling started", "file", "cpu.prof")
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if !cfg.Profile || cpuProfile == nil {
		return nil
	}

	pprof.StopCPUProfile()
	defer cpuProfile.Close()
	cpuProfile = nil
	slog.Info("cpu profiling stopped", "file", "cpu.prof")

	memFile, err := os.Create("mem.prof")
	if err != nil {
		return fmt.Errorf("creating mem.prof: %w", err)
	}
	defer memFile.Close()
	runtime.GC() // Get up-to-date statistics
	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("writing memory profile: %w", err)
	}
	slog.Info("memory profiling completed", "file", "mem.prof")
	return nil
}

func errWithCode(err error, code int) error {
	return &codedError{err: err, code: code}
}

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return ""
}

func (e *codedError) Unwrap() error { return e.err }

// exitCode maps an error returned by the command tree to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var cErr *codedError
	if errors.As(err, &cErr) {
		return cErr.code
	}
	return exitError
}
