package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/servhound/servhound/pkg/record"
	"github.com/servhound/servhound/pkg/ui"
)

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", "servhound.yaml", "Path to the settings file")
	pluginName := fs.String("plugin", "", "Plugin to search with")
	query := fs.String("query", "", "Search query")
	apiKey := fs.String("api-key", "", "API key override for this invocation")
	saveLabel := fs.String("save", "", "Save results under this label")
	dedup := fs.Bool("dedup", true, "Collapse duplicate (ip, port) pairs")
	dropSeen := fs.Bool("drop-seen", false, "Drop services already in the novelty store")
	verbose := fs.Bool("verbose", false, "Verbose logging")
	overrides := kvFlag{}
	fs.Var(overrides, "set", "Config override key=value (repeatable)")
	fs.Parse(os.Args[2:])

	if *pluginName == "" || *query == "" {
		fmt.Fprintln(os.Stderr, "error: -plugin and -query are required")
		os.Exit(1)
	}
	if *apiKey != "" {
		overrides["api_key"] = *apiKey
	}

	w := openWorkbench(*configPath, *verbose)
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := w.Search(ctx, *pluginName, *query, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	outcome := <-out
	if outcome.Err != nil {
		fmt.Fprintf(os.Stderr, "search failed: %v\n", outcome.Err)
		os.Exit(1)
	}

	results := w.Queues.Results()
	if *dedup {
		if n := results.ClearDuplicates(); n > 0 {
			fmt.Printf("%s removed %d duplicates\n", ui.Render(ui.MutedStyle, "dedup:"), n)
		}
	}
	if *dropSeen {
		if n := results.RemoveAllSeen(); n > 0 {
			fmt.Printf("%s dropped %d already-seen services\n", ui.Render(ui.MutedStyle, "seen:"), n)
		}
	}

	fmt.Printf("%s %d results from %s\n", ui.Render(ui.TitleStyle, " RESULTS "), results.Len(), *pluginName)
	for _, rec := range results.Records() {
		printRecord(rec)
	}

	if *saveLabel != "" && results.Len() > 0 {
		path, err := w.Storage.SaveRecords(results.Records(), *saveLabel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("saved to %s\n", path)
	}
}

func printRecord(rec *record.Record) {
	mark := " "
	if rec.IsUnseen {
		mark = ui.Render(ui.UnseenStyle, "*")
	}
	line := fmt.Sprintf("%s %-21s", mark, rec.Key())
	if rec.Service != "" {
		line += " " + rec.Service
	}
	if rec.Domain != "" {
		line += " " + rec.Domain
	}
	if rec.Location != "" {
		line += " " + ui.Render(ui.MutedStyle, rec.Location)
	}
	fmt.Println(line)
}
