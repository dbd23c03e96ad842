// Package main is the entry point for the treemodel scenario runner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/treemodel/internal/config"
	"github.com/dshills/treemodel/internal/scenario"
	"github.com/dshills/treemodel/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// options holds the command line settings. Empty values keep the
// configured ones.
type options struct {
	ConfigPath string
	Dir        string
	Pattern    string
	Output     string
	Level      string
	Watch      bool
	Files      []string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(config.WithFile(opts.ConfigPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		return 2
	}
	if err := opts.apply(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	cfg.Log.Apply(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scenarios, err := loadScenarios(cfg.Scenario, opts.Files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if len(scenarios) == 0 {
			return 2
		}
	}

	failed, err := runScenarios(ctx, os.Stdout, scenarios, cfg)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if opts.Watch {
		if err := watchDir(ctx, os.Stdout, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
		return 0
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	defaultConfig := os.Getenv(config.EnvConfigPath)
	if defaultConfig == "" {
		defaultConfig = "treemodel.toml"
	}

	flag.StringVar(&opts.ConfigPath, "config", defaultConfig, "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", defaultConfig, "Path to configuration file (shorthand)")
	flag.StringVar(&opts.Dir, "dir", "", "Scenario directory")
	flag.StringVar(&opts.Pattern, "pattern", "", "Scenario file glob")
	flag.StringVar(&opts.Output, "output", "", "Report format (text, json)")
	flag.StringVar(&opts.Output, "o", "", "Report format (shorthand)")
	flag.StringVar(&opts.Level, "log-level", "", "Log level (error, info, debug)")
	flag.BoolVar(&opts.Watch, "watch", false, "Rerun scenarios when their files change")
	flag.BoolVar(&opts.Watch, "w", false, "Rerun scenarios when their files change (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "treemodel - run document model scenarios\n\n")
		fmt.Fprintf(os.Stderr, "Usage: treemodel [options] [scenario files...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  treemodel                       Run the scenarios of the configured directory\n")
		fmt.Fprintf(os.Stderr, "  treemodel split.yaml            Run one scenario\n")
		fmt.Fprintf(os.Stderr, "  treemodel -dir testdata -w      Rerun scenarios on change\n")
		fmt.Fprintf(os.Stderr, "  treemodel -o json > report.jsonl\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("treemodel %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	opts.Files = flag.Args()
	return opts
}

// apply overrides cfg with the flags that were given and validates the result.
func (o options) apply(cfg *config.Config) error {
	if o.Dir != "" {
		cfg.Scenario.Dir = o.Dir
	}
	if o.Pattern != "" {
		cfg.Scenario.Pattern = o.Pattern
	}
	if o.Output != "" {
		cfg.Scenario.Output = o.Output
	}
	if o.Level != "" {
		cfg.Log.Level = o.Level
	}
	return cfg.Validate()
}

// loadScenarios reads the given files, or the configured directory when
// no files are given. Scenarios that parsed are returned alongside the error.
func loadScenarios(cfg config.ScenarioConfig, files []string) ([]*scenario.Scenario, error) {
	if len(files) == 0 {
		return scenario.LoadDir(cfg.Dir, cfg.Pattern)
	}
	var out []*scenario.Scenario
	var errs []error
	for _, path := range files {
		s, err := scenario.Load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, s)
	}
	return out, errors.Join(errs...)
}

// runScenarios runs and reports every scenario. It returns the number of
// failed scenarios.
func runScenarios(ctx context.Context, w io.Writer, scenarios []*scenario.Scenario, cfg *config.Config) (int, error) {
	failed := 0
	for _, s := range scenarios {
		res, err := scenario.Run(ctx, s, cfg.Model)
		if err != nil {
			return failed, err
		}
		if !res.Passed() {
			failed++
		}
		if err := report(w, res, cfg.Scenario.Output); err != nil {
			return failed, err
		}
	}
	if cfg.Scenario.Output == config.OutputText {
		fmt.Fprintf(w, "%d scenarios, %d failed\n", len(scenarios), failed)
	}
	return failed, nil
}

// report writes one result. JSON results are written one per line.
func report(w io.Writer, res *scenario.Result, output string) error {
	if output != config.OutputJSON {
		_, err := io.WriteString(w, res.Text())
		return err
	}
	data, err := res.JSON()
	if err != nil {
		return fmt.Errorf("encode %s: %w", res.Name, err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// watchDir reruns scenario files of the configured directory whenever they
// change, until ctx is done.
func watchDir(ctx context.Context, w io.Writer, cfg *config.Config) error {
	dw, err := watch.NewDirWatcher(cfg.Scenario.Dir, watch.WithPattern(cfg.Scenario.Pattern))
	if err != nil {
		return err
	}
	src := watch.NewDebouncer(dw, cfg.Scenario.Debounce())
	defer src.Close()

	fmt.Fprintf(os.Stderr, "watching %s for %s\n", dw.Dir(), cfg.Scenario.Pattern)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-src.Errors():
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		case ev, ok := <-src.Events():
			if !ok {
				return nil
			}
			if ev.Gone() {
				continue
			}
			res, err := scenario.RunFile(ctx, ev.Path, cfg.Model)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			if err := report(w, res, cfg.Scenario.Output); err != nil {
				return err
			}
		}
	}
}
