// Package workbench wires the pipeline together: novelty store, plugin
// and processor registries with their persisted config, the two record
// queues, the processing engine, and result storage. Everything hangs
// off an explicit Workbench value; there are no package-level
// singletons.
package workbench

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/servhound/servhound/pkg/config"
	"github.com/servhound/servhound/pkg/engine"
	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/novelty"
	"github.com/servhound/servhound/pkg/plugins"
	"github.com/servhound/servhound/pkg/processors"
	"github.com/servhound/servhound/pkg/queue"
	"github.com/servhound/servhound/pkg/storage"
)

// Workbench is the composition root for one workbench session.
type Workbench struct {
	Settings config.Settings

	Novelty    *novelty.Store
	Plugins    *extension.Registry[extension.Plugin]
	Processors *extension.Registry[extension.Processor]

	PluginConfig    *extension.ConfigStore
	ProcessorConfig *extension.ConfigStore

	Queues  *queue.Manager
	Engine  *engine.Engine
	Storage *storage.Store

	logger *slog.Logger
}

// Option configures a Workbench.
type Option func(*Workbench)

// WithLogger sets the structured logger shared by all collaborators.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workbench) { w.logger = l }
}

// New builds a workbench from settings. The novelty store is opened
// eagerly; a corrupt store is a fatal construction error rather than a
// silent loss of novelty tracking.
func New(settings config.Settings, opts ...Option) (*Workbench, error) {
	w := &Workbench{
		Settings: settings,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	store, err := novelty.Open(settings.NoveltyPath)
	if err != nil {
		return nil, fmt.Errorf("open novelty store: %w", err)
	}
	w.Novelty = store

	w.PluginConfig, err = extension.OpenConfigStore(settings.PluginConfigPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open plugin config: %w", err)
	}
	w.ProcessorConfig, err = extension.OpenConfigStore(settings.ProcessorConfigPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open processor config: %w", err)
	}

	w.Plugins = extension.NewRegistry("plugin",
		extension.WithConfigStore[extension.Plugin](w.PluginConfig),
		extension.WithLogger[extension.Plugin](w.logger))
	w.Plugins.LoadBuiltins(plugins.Builtins()...)
	w.Plugins.DiscoverScripts(settings.PluginDir, extension.LoadScriptPlugin)

	w.Processors = extension.NewRegistry("processor",
		extension.WithConfigStore[extension.Processor](w.ProcessorConfig),
		extension.WithLogger[extension.Processor](w.logger))
	w.Processors.LoadBuiltins(processors.Builtins()...)
	w.Processors.DiscoverScripts(settings.ProcessorDir, extension.LoadScriptProcessor)

	w.Queues = queue.NewManager(store, queue.WithManagerLogger(w.logger))
	w.Engine = engine.New(engine.WithLogger(w.logger))
	w.Storage = storage.New(settings.ResultsDir, storage.WithLogger(w.logger))

	return w, nil
}

// Close releases the workbench's persistent resources.
func (w *Workbench) Close() error {
	return w.Novelty.Close()
}

// SearchOutcome is delivered on the channel returned by Search once the
// plugin call finishes.
type SearchOutcome struct {
	Plugin string
	Query  string
	Added  int
	Err    error
}

// Search runs pluginName against query off the caller's goroutine and
// appends results into the results queue. The stored extension config
// is merged under the caller's overrides, and the stored API key is
// injected as config["api_key"] unless the caller supplied one.
// Invocation failure is delivered on the outcome channel, never raised.
func (w *Workbench) Search(ctx context.Context, pluginName, query string, overrides map[string]any) (<-chan SearchOutcome, error) {
	plugin, ok := w.Plugins.Get(pluginName)
	if !ok {
		return nil, fmt.Errorf("unknown plugin %q", pluginName)
	}
	if !w.Plugins.Enabled(pluginName) {
		return nil, fmt.Errorf("plugin %q is disabled", pluginName)
	}

	cfg := w.mergedConfig(w.PluginConfig, pluginName, overrides)

	out := make(chan SearchOutcome, 1)
	go func() {
		defer close(out)
		outcome := SearchOutcome{Plugin: pluginName, Query: query}
		defer func() {
			if r := recover(); r != nil {
				outcome.Err = fmt.Errorf("plugin %s panicked: %v", pluginName, r)
			}
			out <- outcome
		}()

		records, err := plugin.Search(ctx, query, cfg)
		if err != nil {
			w.logger.Warn("plugin search failed", "plugin", pluginName, "error", err)
			outcome.Err = err
			return
		}
		if max := plugin.MaxResults(); max > 0 && len(records) > max {
			records = records[:max]
		}
		w.Queues.Results().AddAll(records)
		outcome.Added = len(records)
		w.logger.Info("search finished", "plugin", pluginName, "added", len(records))
	}()
	return out, nil
}

// Process starts the engine over the processing queue with the named
// processor and the stored config merged under overrides.
func (w *Workbench) Process(ctx context.Context, processorName string, overrides map[string]any) error {
	proc, ok := w.Processors.Get(processorName)
	if !ok {
		return fmt.Errorf("unknown processor %q", processorName)
	}
	if !w.Processors.Enabled(processorName) {
		return fmt.Errorf("processor %q is disabled", processorName)
	}
	cfg := w.mergedConfig(w.ProcessorConfig, processorName, overrides)
	return w.Engine.Start(ctx, proc, w.Queues.Processing(), cfg)
}

// mergedConfig layers: schema-seeded stored config, stored API key,
// then caller overrides.
func (w *Workbench) mergedConfig(cs *extension.ConfigStore, name string, overrides map[string]any) map[string]any {
	cfg := cs.Config(name)
	if cfg == nil {
		cfg = make(map[string]any)
	}
	if key := cs.APIKey(name); key != "" {
		if _, ok := cfg["api_key"]; !ok {
			cfg["api_key"] = key
		}
	}
	for k, v := range overrides {
		cfg[k] = v
	}
	return cfg
}
