package extension

import (
	"context"
	"fmt"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/servhound/servhound/pkg/record"
)

// Custom extensions are Tengo scripts dropped into the workbench's
// custom directories. A script must define `name`, `description` and
// `kind` ("plugin" or "processor"), plus a `search(query, config)`
// function for plugins or a `process(target)` function for processors.
// Scripts run in a sandboxed VM with only safe stdlib modules: no file
// I/O, no network, no OS access.
var safeModules = stdlib.GetModuleMap("text", "fmt", "math", "times")

const scriptMaxAllocs = 10_000_000

// scriptMeta is the metadata every script unit must or may export.
type scriptMeta struct {
	name           string
	description    string
	kind           string
	requiresAPIKey bool
	maxResults     int
}

func loadScriptMeta(path string) (scriptMeta, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scriptMeta{}, nil, fmt.Errorf("read script %s: %w", path, err)
	}

	script := tengo.NewScript(data)
	script.SetImports(safeModules)
	script.SetMaxAllocs(scriptMaxAllocs)

	compiled, err := script.Run()
	if err != nil {
		return scriptMeta{}, nil, fmt.Errorf("compile script %s: %w", path, err)
	}

	var meta scriptMeta
	nameVar := compiled.Get("name")
	if nameVar.IsUndefined() {
		return scriptMeta{}, nil, fmt.Errorf("script %s: missing 'name' variable", path)
	}
	meta.name = nameVar.String()

	descVar := compiled.Get("description")
	if descVar.IsUndefined() {
		return scriptMeta{}, nil, fmt.Errorf("script %s: missing 'description' variable", path)
	}
	meta.description = descVar.String()

	kindVar := compiled.Get("kind")
	if kindVar.IsUndefined() {
		return scriptMeta{}, nil, fmt.Errorf("script %s: missing 'kind' variable", path)
	}
	meta.kind = kindVar.String()

	if v := compiled.Get("requires_api_key"); !v.IsUndefined() {
		meta.requiresAPIKey = v.Bool()
	}
	if v := compiled.Get("max_results"); !v.IsUndefined() {
		meta.maxResults = v.Int()
	}

	return meta, data, nil
}

// precompileCall builds and compiles a wrapper that invokes fn with the
// named inputs, so each invocation only needs Clone()+Set()+Run().
func precompileCall(src []byte, call string, inputs ...string) (*tengo.Compiled, error) {
	wrapper := fmt.Sprintf("%s\n__result__ := %s\n", string(src), call)

	script := tengo.NewScript([]byte(wrapper))
	script.SetImports(safeModules)
	script.SetMaxAllocs(scriptMaxAllocs)
	for _, in := range inputs {
		if err := script.Add(in, ""); err != nil {
			return nil, err
		}
	}
	return script.Compile()
}

// ScriptPlugin wraps a Tengo script as a Plugin.
type ScriptPlugin struct {
	meta     scriptMeta
	compiled *tengo.Compiled
}

// LoadScriptPlugin compiles a .tengo plugin unit. The script must set
// kind = "plugin" and define search(query, config).
func LoadScriptPlugin(path string) (Plugin, error) {
	meta, src, err := loadScriptMeta(path)
	if err != nil {
		return nil, err
	}
	if meta.kind != "plugin" {
		return nil, fmt.Errorf("script %s: kind %q is not a plugin", path, meta.kind)
	}

	compiled, err := precompileCall(src, "search(__query__, __config__)", "__query__", "__config__")
	if err != nil {
		return nil, fmt.Errorf("precompile plugin %s: %w", path, err)
	}
	return &ScriptPlugin{meta: meta, compiled: compiled}, nil
}

func (p *ScriptPlugin) Name() string         { return p.meta.name }
func (p *ScriptPlugin) Description() string  { return p.meta.description }
func (p *ScriptPlugin) ConfigSchema() Schema { return nil }
func (p *ScriptPlugin) RequiresAPIKey() bool { return p.meta.requiresAPIKey }
func (p *ScriptPlugin) MaxResults() int      { return p.meta.maxResults }

// Search runs the script's search function and maps its result array
// onto records. Script panics surface as errors, not faults.
func (p *ScriptPlugin) Search(ctx context.Context, query string, config map[string]any) (records []record.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin script %s panicked: %v", p.meta.name, r)
		}
	}()

	c := p.compiled.Clone()
	if err := c.Set("__query__", query); err != nil {
		return nil, fmt.Errorf("plugin script %s: %w", p.meta.name, err)
	}
	if config == nil {
		config = map[string]any{}
	}
	if err := c.Set("__config__", config); err != nil {
		return nil, fmt.Errorf("plugin script %s: %w", p.meta.name, err)
	}
	if err := c.RunContext(ctx); err != nil {
		return nil, fmt.Errorf("plugin script %s: %w", p.meta.name, err)
	}

	result := c.Get("__result__")
	if result.IsUndefined() {
		return nil, nil
	}
	arr, ok := result.Value().([]any)
	if !ok {
		return nil, fmt.Errorf("plugin script %s: search must return an array", p.meta.name)
	}

	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rec := recordFromMap(m)
		if rec.Validate() == nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

// ScriptProcessor wraps a Tengo script as a Processor.
type ScriptProcessor struct {
	meta     scriptMeta
	compiled *tengo.Compiled
}

// LoadScriptProcessor compiles a .tengo processor unit. The script must
// set kind = "processor" and define process(target).
func LoadScriptProcessor(path string) (Processor, error) {
	meta, src, err := loadScriptMeta(path)
	if err != nil {
		return nil, err
	}
	if meta.kind != "processor" {
		return nil, fmt.Errorf("script %s: kind %q is not a processor", path, meta.kind)
	}

	compiled, err := precompileCall(src, "process(__target__)", "__target__")
	if err != nil {
		return nil, fmt.Errorf("precompile processor %s: %w", path, err)
	}
	return &ScriptProcessor{meta: meta, compiled: compiled}, nil
}

func (p *ScriptProcessor) Name() string         { return p.meta.name }
func (p *ScriptProcessor) Description() string  { return p.meta.description }
func (p *ScriptProcessor) ConfigSchema() Schema { return nil }

// Process runs the script's process function against one target. The
// target map carries ip, port and the merged run config, matching what
// builtin processors receive.
func (p *ScriptProcessor) Process(ctx context.Context, target Target) (res record.ProcessingResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor script %s panicked: %v", p.meta.name, r)
		}
	}()

	in := map[string]any{"ip": target.IP, "port": target.Port}
	for k, v := range target.Config {
		in[k] = v
	}

	c := p.compiled.Clone()
	if err := c.Set("__target__", in); err != nil {
		return record.ProcessingResult{}, fmt.Errorf("processor script %s: %w", p.meta.name, err)
	}
	if err := c.RunContext(ctx); err != nil {
		return record.ProcessingResult{}, fmt.Errorf("processor script %s: %w", p.meta.name, err)
	}

	result := c.Get("__result__")
	if result.IsUndefined() {
		return record.ProcessingResult{}, fmt.Errorf("processor script %s returned nothing", p.meta.name)
	}
	m, ok := result.Value().(map[string]any)
	if !ok {
		return record.ProcessingResult{}, fmt.Errorf("processor script %s: process must return a map", p.meta.name)
	}

	out := record.ProcessingResult{Color: record.ColorRed}
	if v, ok := m["success"].(bool); ok {
		out.Success = v
	}
	if v, ok := m["message"].(string); ok {
		out.Message = v
	}
	if v, ok := m["color"].(string); ok && record.Color(v).Valid() {
		out.Color = record.Color(v)
	}
	if v, ok := m["details"].(map[string]any); ok {
		out.Details = v
	}
	return out, nil
}

// recordFromMap maps a loosely-typed script result entry onto a Record.
func recordFromMap(m map[string]any) record.Record {
	var rec record.Record
	if v, ok := m["ip"].(string); ok {
		rec.IP = v
	}
	if v, ok := coerceInt(m["port"]); ok {
		rec.Port = v
	}
	str := func(key string) string {
		if v, ok := m[key].(string); ok {
			return v
		}
		return ""
	}
	rec.Service = str("service")
	rec.Location = str("location")
	rec.ASN = str("asn")
	rec.Banner = str("banner")
	rec.Domain = str("domain")
	rec.Date = str("date")
	rec.Extra = str("extra")
	return rec
}
