package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/servhound/servhound/pkg/config"
	"github.com/servhound/servhound/pkg/workbench"
)

// kvFlag collects repeated -set key=value flags into a config override
// map. Values that parse as integers or booleans are coerced so they
// match schema-typed options.
type kvFlag map[string]any

func (f kvFlag) String() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ",")
}

func (f kvFlag) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	if n, err := strconv.Atoi(value); err == nil {
		f[key] = n
	} else if b, err := strconv.ParseBool(value); err == nil {
		f[key] = b
	} else {
		f[key] = value
	}
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openWorkbench loads settings and builds the workbench; any failure is
// fatal for a CLI invocation.
func openWorkbench(configPath string, verbose bool) *workbench.Workbench {
	settings, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	w, err := workbench.New(settings, workbench.WithLogger(newLogger(verbose)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return w
}
