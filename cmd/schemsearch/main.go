// Command schemsearch searches Sponge schematics for a block pattern.
//
// Usage:
//
//	schemsearch [flags] <pattern.schem> <schematic|dir>...
//	schemsearch -invalid-nbt [flags] <schematic|dir>...
//	schemsearch -sql schems.db -sql-owner 7 [flags] <pattern.schem>
//
// Flags given on the command line override values from the -config file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arloliu/schemsearch/batch"
	"github.com/arloliu/schemsearch/internal/config"
	logpkg "github.com/arloliu/schemsearch/internal/logger"
	"github.com/arloliu/schemsearch/output"
	"github.com/arloliu/schemsearch/schematic"
	"github.com/arloliu/schemsearch/source"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// int64List is a repeatable integer flag.
type int64List []int64

func (s *int64List) String() string {
	parts := make([]string, len(*s))
	for i, v := range *s {
		parts[i] = strconv.FormatInt(v, 10)
	}

	return strings.Join(parts, ",")
}

func (s *int64List) Set(v string) error {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid owner id %q", v)
	}
	*s = append(*s, n)

	return nil
}

type cliFlags struct {
	configPath string
	cfg        config.Config
	outputs    stringList
	sqlOwners  int64List
	sqlNames   stringList
}

func newFlagSet(f *cliFlags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("schemsearch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: schemsearch [flags] <pattern> <schematic|dir>...")
		fs.PrintDefaults()
	}

	c := &f.cfg
	boolFlag := func(p *bool, long, short, usage string) {
		fs.BoolVar(p, long, *p, usage)
		fs.BoolVar(p, short, *p, "shorthand for -"+long)
	}
	boolFlag(&c.Search.IgnoreBlockData, "ignore-data", "d", "compare blocks by name only")
	boolFlag(&c.Search.IgnoreAir, "ignore-air", "a", "treat air in the schematic as matching anything")
	boolFlag(&c.Search.AirAsAny, "air-as-any", "A", "treat air in the pattern as matching anything")
	boolFlag(&c.Search.IgnoreBlockEntities, "ignore-block-entities", "b", "ignore block entities")
	boolFlag(&c.Search.IgnoreEntities, "ignore-entities", "e", "ignore entities")

	fs.Float64Var(&c.Search.Threshold, "threshold", c.Search.Threshold, "minimum fraction of matching blocks")
	fs.Float64Var(&c.Search.Threshold, "t", c.Search.Threshold, "shorthand for -threshold")
	fs.IntVar(&c.Workers, "threads", c.Workers, "concurrent searches (0 = all CPUs)")
	fs.IntVar(&c.Workers, "T", c.Workers, "shorthand for -threads")
	fs.Var(&f.outputs, "output", "output as format:target, repeatable (text, csv, json; target std or a file)")
	fs.Var(&f.outputs, "o", "shorthand for -output")

	fs.StringVar(&c.SQL.Path, "sql", c.SQL.Path, "search schematics stored in this SQLite database")
	fs.Var(&f.sqlOwners, "sql-owner", "only schematics of this owner id, repeatable")
	fs.Var(&f.sqlNames, "sql-name", "only schematics whose name contains this text, repeatable")

	fs.BoolVar(&c.InvalidNBT.Enabled, "invalid-nbt", c.InvalidNBT.Enabled, "report blocks missing their block entity instead of searching")
	fs.BoolVar(&c.InvalidNBT.Coarse, "invalid-nbt-coarse", c.InvalidNBT.Coarse, "with -invalid-nbt, only check the palette")

	fs.StringVar(&c.ByteOrder, "byte-order", c.ByteOrder, "NBT byte order: big or little")
	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&c.Logging.Level, "log-level", c.Logging.Level, "log level: debug, info, warn, error")
	fs.BoolVar(&c.Logging.JSON, "log-json", c.Logging.JSON, "log as JSON")
	fs.StringVar(&c.MetricsFile, "metrics-file", c.MetricsFile, "write Prometheus metrics to this file after the run")

	return fs
}

// parseArgs loads the configuration file named by -config and applies the
// flags set on the command line over it.
func parseArgs(args []string, stderr io.Writer) (config.Config, []string, error) {
	parsed := cliFlags{cfg: config.Default()}
	fs := newFlagSet(&parsed, stderr)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, nil, err
	}

	cfg, err := config.Load(parsed.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	// Re-parse into the loaded file so only explicit flags override it.
	overlay := cliFlags{cfg: cfg}
	fs = newFlagSet(&overlay, io.Discard)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, nil, err
	}
	cfg = overlay.cfg
	if len(overlay.outputs) > 0 {
		cfg.Outputs = overlay.outputs
	}
	if len(overlay.sqlOwners) > 0 {
		cfg.SQL.Owners = overlay.sqlOwners
	}
	if len(overlay.sqlNames) > 0 {
		cfg.SQL.Names = overlay.sqlNames
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	return cfg, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, rest, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, "schemsearch:", err)

		return exitUsage
	}

	logger, err := logpkg.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	if err != nil {
		fmt.Fprintln(stderr, "schemsearch:", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	if err := execute(ctx, cfg, rest, stdout, logger); err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintln(stderr, "schemsearch:", err)
			return exitUsage
		}
		logger.Error("search failed", zap.Error(err))

		return exitError
	}

	return exitOK
}

type usageError string

func (e usageError) Error() string { return string(e) }

func execute(ctx context.Context, cfg config.Config, args []string, stdout io.Writer, logger *zap.Logger) error {
	decodeOpts := cfg.DecoderOptions()

	var pattern schematic.Schematic
	if !cfg.InvalidNBT.Enabled {
		if len(args) == 0 {
			return usageError("missing pattern schematic")
		}
		p, err := schematic.Load(args[0], decodeOpts...)
		if err != nil {
			return fmt.Errorf("load pattern: %w", err)
		}
		pattern = p
		args = args[1:]
	}

	sources, closeSources, err := collectSources(ctx, cfg, args)
	if err != nil {
		return err
	}
	defer closeSources()
	if len(sources) == 0 {
		return usageError("no schematics to search")
	}

	behavior, err := cfg.Behavior()
	if err != nil {
		return err
	}

	targets, err := cfg.Targets()
	if err != nil {
		return err
	}
	sinks := make(output.Sinks, 0, len(targets))
	defer func() { _ = sinks.Close() }()
	for _, t := range targets {
		s, err := output.Open(t, stdout)
		if err != nil {
			return err
		}
		sinks = append(sinks, s)
	}

	reg := prometheus.NewRegistry()
	opts := []batch.Option{
		batch.WithWorkers(cfg.Workers),
		batch.WithMetrics(batch.NewMetrics(reg)),
		batch.WithLogger(logger),
		batch.WithDecoderOptions(decodeOpts...),
	}
	if cfg.InvalidNBT.Enabled {
		opts = append(opts, batch.WithInvalidNBT(cfg.InvalidNBT.Coarse))
	}

	var sinkErr error
	opts = append(opts, batch.WithOnResult(func(res batch.Result) {
		if res.Err != nil {
			logger.Warn("skipping schematic", zap.String("name", res.Name), zap.Error(res.Err))
			return
		}
		for _, m := range res.Matches {
			if err := sinks.Found(res.Name, m); err != nil && sinkErr == nil {
				sinkErr = err
			}
		}
	}))

	runner, err := batch.NewRunner(pattern, behavior, opts...)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := sinks.Init(len(sources), behavior, start); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("search started",
		zap.Int("schematics", len(sources)),
		zap.Int("workers", runner.Workers()),
		zap.Bool("invalid_nbt", cfg.InvalidNBT.Enabled),
	)

	results := runner.Run(ctx, sources)

	if err := sinks.End(time.Since(start)); err != nil && sinkErr == nil {
		sinkErr = err
	}
	if sinkErr != nil {
		return fmt.Errorf("write output: %w", sinkErr)
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	logger.Info("search finished",
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return ctx.Err()
}

// collectSources resolves file arguments and, when configured, the SQLite store.
func collectSources(ctx context.Context, cfg config.Config, args []string) ([]source.Source, func(), error) {
	sources, err := source.Collect(args)
	if err != nil {
		return nil, nil, err
	}
	if cfg.SQL.Path == "" {
		return sources, func() {}, nil
	}

	store, err := source.OpenSQLite(cfg.SQL.Path)
	if err != nil {
		return nil, nil, err
	}
	stored, err := store.Sources(ctx, source.Filter{Owners: cfg.SQL.Owners, Names: cfg.SQL.Names})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	return append(sources, stored...), func() { _ = store.Close() }, nil
}
