// Command servhound is the target pipeline workbench CLI: search
// intelligence sources, queue and deduplicate discovered services, and
// run probe processors over them.
package main

import (
	"fmt"
	"os"

	"github.com/servhound/servhound/pkg/ui"
)

func printUsage() {
	fmt.Println(ui.Banner())
	fmt.Println(`Usage: servhound <command> [flags]

Commands:
  extensions   List plugins and processors with their enabled state
  search       Query an intelligence plugin and collect results
  probe        Run a processor over a saved result snapshot
  enable       Enable or disable an extension, or set its API key
  version      Print version information

Run 'servhound <command> -h' for command flags.`)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "extensions", "ext", "list":
		runExtensions()
	case "search":
		runSearch()
	case "probe", "process":
		runProbe()
	case "enable", "disable", "apikey":
		runEnable(os.Args[1])
	case "-h", "--help", "help":
		printUsage()
		os.Exit(0)
	case "-v", "--version", "version":
		fmt.Printf("servhound %s (built %s, commit %s)\n", ui.Version, ui.BuildDate, ui.Commit)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}
