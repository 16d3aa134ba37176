package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	goversion "github.com/caarlos0/go-version"

	"github.com/origadmin/mapgen/internal/config"
	"github.com/origadmin/mapgen/internal/diag"
	"github.com/origadmin/mapgen/internal/emit"
	"github.com/origadmin/mapgen/internal/host"
	"github.com/origadmin/mapgen/internal/pipeline"
	"github.com/origadmin/mapgen/internal/round"
	"github.com/origadmin/mapgen/internal/stages"
)

var (
	version   = "0.0.1"
	commit    = ""
	treeState = ""
	date      = ""
	builtBy   = ""
	debug     = flag.Bool("debug", false, "Enable debug logging")
	cfgFile   = flag.String("config", "", "Optional config file with generator options.")
	policy    = flag.String("policy", "", "Unmapped-target policy: ignore, warn or error. Overrides config.")
	maxRounds = flag.Int("max-rounds", 8, "Maximum number of resolution rounds before the terminal round.")
	logFile   = flag.String("log-file", "", "Path to a file where logs should be written. If empty, logs go to stderr.")
)

func main() {
	flag.Parse()

	var logWriter *os.File
	if *logFile != "" {
		var err error
		logWriter, err = os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			slog.Error("Failed to open log file", "file", *logFile, "error", err)
			os.Exit(1)
		}
		defer logWriter.Close()
	} else {
		logWriter = os.Stderr
	}

	logLevel := slog.LevelWarn
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: logLevel,
	})))

	if len(flag.Args()) == 0 {
		v := buildVersion(version, commit, date, builtBy, treeState)
		fmt.Println(v.String())
		fmt.Println("Usage: mapgen [options] <declaration_directory>")
		flag.PrintDefaults()
		return
	}

	sourceDir := flag.Arg(0)
	slog.Info("Starting mapgen", "sourceDir", sourceDir)

	opts, err := config.Load(*cfgFile)
	if err != nil {
		slog.Error("Failed to resolve options", "error", err)
		os.Exit(1)
	}
	if *policy != "" {
		p, err := config.ParsePolicy(*policy)
		if err != nil {
			slog.Error("Invalid policy flag", "error", err)
			os.Exit(1)
		}
		opts.UnmappedTargetPolicy = p
	}
	if *debug {
		opts.Verbose = true
	}

	ctx := context.Background()
	provider, err := host.LoadGoPackages(ctx, sourceDir)
	if err != nil {
		slog.Error("Failed to load declaration packages", "error", err)
		os.Exit(1)
	}
	discovered := provider.DiscoverMappers()
	if len(discovered) == 0 {
		slog.Warn("No mapper declarations found", "sourceDir", sourceDir)
		return
	}
	slog.Info("Discovered mapper declarations", "count", len(discovered))

	collector := &emit.Collector{Verbose: opts.Verbose}
	registry := pipeline.NewRegistry().MustRegister(
		stages.MethodExtraction{},
		stages.MapperCreation{},
		stages.EmissionHandoff{Emitter: collector},
	)
	reporter := &exitReporter{next: diag.SlogReporter{}}
	coordinator := round.New(provider, registry, opts, reporter)

	coordinator.RunRound(ctx, discovered, false)
	for i := 1; i < *maxRounds && coordinator.DeferredCount() > 0; i++ {
		before := coordinator.DeferredCount()
		coordinator.RunRound(ctx, nil, false)
		if coordinator.DeferredCount() >= before {
			// No progress; further rounds cannot resolve anything new.
			break
		}
	}
	if n := coordinator.DeferredCount(); n > 0 {
		slog.Warn("Declarations left unresolved, the compiler will report the missing types",
			"count", n, "declarations", coordinator.Deferred())
	}
	coordinator.RunRound(ctx, nil, true)

	for _, mapper := range collector.Mappers {
		slog.Info("Completed generation model", "decl", mapper.Declaration, "methods", len(mapper.Methods))
	}
	if reporter.errored {
		os.Exit(1)
	}
	slog.Info("mapgen finished", "models", len(collector.Mappers))
}

// exitReporter tracks whether any error diagnostic was reported so main can
// exit non-zero.
type exitReporter struct {
	next    diag.Reporter
	errored bool
}

func (r *exitReporter) Report(sev diag.Severity, loc diag.Location, msg string) {
	if sev == diag.Error {
		r.errored = true
	}
	r.next.Report(sev, loc, msg)
}

func buildVersion(version, commit, date, builtBy, treeState string) goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails(config.Application, config.Description, config.WebSite),
		func(i *goversion.Info) {
			i.ASCIIName = config.UI
			if commit != "" {
				i.GitCommit = commit
			}
			if version != "" {
				i.GitVersion = version
			}
			if treeState != "" {
				i.GitTreeState = treeState
			}
			if date != "" {
				i.BuildDate = date
			}
			if builtBy != "" {
				i.BuiltBy = builtBy
			}
		},
	)
}
