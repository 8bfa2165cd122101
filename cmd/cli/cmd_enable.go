package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/ui"
	"github.com/servhound/servhound/pkg/workbench"
)

// runEnable handles the enable, disable and apikey verbs. All three
// resolve an extension by name across both registries and mutate its
// stored config.
func runEnable(verb string) {
	fs := flag.NewFlagSet(verb, flag.ExitOnError)
	configPath := fs.String("config", "servhound.yaml", "Path to the settings file")
	name := fs.String("name", "", "Extension name")
	key := fs.String("key", "", "API key value (apikey verb only)")
	verbose := fs.Bool("verbose", false, "Verbose logging")
	fs.Parse(os.Args[2:])

	if *name == "" {
		fmt.Fprintln(os.Stderr, "error: -name is required")
		os.Exit(1)
	}
	if verb == "apikey" && *key == "" {
		fmt.Fprintln(os.Stderr, "error: -key is required")
		os.Exit(1)
	}

	w := openWorkbench(*configPath, *verbose)
	defer w.Close()

	store, ok := storeFor(w, *name)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: unknown extension %q\n", *name)
		os.Exit(1)
	}

	var err error
	done := ""
	switch verb {
	case "enable":
		err = store.SetEnabled(*name, true)
		done = "enabled"
	case "disable":
		err = store.SetEnabled(*name, false)
		done = "disabled"
	case "apikey":
		err = store.SetAPIKey(*name, *key)
		done = "api key set for"
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s %s\n", ui.Render(ui.GreenStyle, done+":"), *name)
}

// storeFor finds the config store owning the named extension, plugins
// first.
func storeFor(w *workbench.Workbench, name string) (*extension.ConfigStore, bool) {
	if _, ok := w.Plugins.Get(name); ok {
		return w.PluginConfig, true
	}
	if _, ok := w.Processors.Get(name); ok {
		return w.ProcessorConfig, true
	}
	return nil, false
}
