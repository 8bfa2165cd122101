package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/servhound/servhound/pkg/engine"
	"github.com/servhound/servhound/pkg/hooks"
	"github.com/servhound/servhound/pkg/report"
	"github.com/servhound/servhound/pkg/ui"
)

func runProbe() {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	configPath := fs.String("config", "servhound.yaml", "Path to the settings file")
	processor := fs.String("processor", "", "Processor to run")
	input := fs.String("input", "", "Results snapshot to load (or \"latest\")")
	reportPath := fs.String("report", "", "Write a PDF run report to this path")
	metricsAddr := fs.String("metrics", "", "Serve Prometheus metrics on this address during the run")
	saveLabel := fs.String("save", "", "Save processed records under this label")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	verbose := fs.Bool("verbose", false, "Verbose logging")
	overrides := kvFlag{}
	fs.Var(overrides, "set", "Config override key=value (repeatable)")
	fs.Parse(os.Args[2:])

	if *processor == "" || *input == "" {
		fmt.Fprintln(os.Stderr, "error: -processor and -input are required")
		os.Exit(1)
	}
	if *noColor {
		ui.SetNoColor(true)
	}

	w := openWorkbench(*configPath, *verbose)
	defer w.Close()

	path := *input
	if path == "latest" {
		snapshots, err := w.Storage.List()
		if err != nil || len(snapshots) == 0 {
			fmt.Fprintln(os.Stderr, "error: no saved snapshots")
			os.Exit(1)
		}
		path = snapshots[0]
	}
	loaded, err := w.Storage.LoadRecords(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	for _, rec := range loaded {
		w.Queues.Results().Add(rec)
	}
	w.Queues.SelectAllResults()
	proc, _ := w.Queues.MoveToProcessing()
	if len(proc) == 0 {
		fmt.Fprintln(os.Stderr, "error: nothing to process")
		os.Exit(1)
	}

	w.Engine.AddHook(hooks.NewConsoleHook())

	var run report.Run
	w.Engine.AddHook(engine.HookFunc(func(ev engine.Event) {
		if ev.Type == engine.EventRunFinished {
			run.ID = ev.RunID
			run.Cancelled = ev.Cancelled
		}
	}))

	if *metricsAddr != "" {
		ph, err := hooks.NewPrometheusHook(hooks.PrometheusOptions{Addr: *metricsAddr})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer ph.Close()
		w.Engine.AddHook(ph)
		fmt.Printf("%s http://%s%s\n", ui.Render(ui.MutedStyle, "metrics:"), ph.MetricsAddr(), "/metrics")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run.Processor = *processor
	run.Started = time.Now()
	if err := w.Process(ctx, *processor, overrides); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	w.Engine.Wait()
	run.Finished = time.Now()

	records := w.Queues.Processing().Records()
	if *reportPath != "" {
		if err := report.Write(*reportPath, run, records); err != nil {
			fmt.Fprintf(os.Stderr, "report failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("report written to %s\n", *reportPath)
	}
	if *saveLabel != "" {
		out, err := w.Storage.SaveRecords(records, *saveLabel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("saved to %s\n", out)
	}
}
