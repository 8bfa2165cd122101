package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/ui"
)

func runExtensions() {
	fs := flag.NewFlagSet("extensions", flag.ExitOnError)
	configPath := fs.String("config", "servhound.yaml", "Path to the settings file")
	verbose := fs.Bool("verbose", false, "Verbose logging")
	fs.Parse(os.Args[2:])

	w := openWorkbench(*configPath, *verbose)
	defer w.Close()

	fmt.Println(ui.Render(ui.TitleStyle, " PLUGINS "))
	for _, p := range w.Plugins.List() {
		printExtension(p.Name(), p.Description(), w.Plugins.Enabled(p.Name()), extra(p))
	}

	fmt.Println()
	fmt.Println(ui.Render(ui.TitleStyle, " PROCESSORS "))
	for _, p := range w.Processors.List() {
		printExtension(p.Name(), p.Description(), w.Processors.Enabled(p.Name()), "")
	}
}

func extra(p extension.Plugin) string {
	var notes []string
	if p.RequiresAPIKey() {
		notes = append(notes, "api key required")
	}
	if max := p.MaxResults(); max > 0 {
		notes = append(notes, fmt.Sprintf("max %d results", max))
	}
	if len(notes) == 0 {
		return ""
	}
	out := notes[0]
	for _, n := range notes[1:] {
		out += ", " + n
	}
	return out
}

func printExtension(name, desc string, enabled bool, notes string) {
	state := ui.Render(ui.GreenStyle, "enabled")
	if !enabled {
		state = ui.Render(ui.RedStyle, "disabled")
	}
	fmt.Printf("  %-16s %s\n", name, state)
	fmt.Printf("      %s\n", ui.Render(ui.MutedStyle, desc))
	if notes != "" {
		fmt.Printf("      %s\n", ui.Render(ui.MutedStyle, notes))
	}
}
