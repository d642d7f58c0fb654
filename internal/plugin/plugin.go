package plugin

import (
	"encoding/json"
	"expvar"
	"fmt"
	"os"
	"path/filepath"
	pluginpkg "plugin"
	"reflect"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/annelo/go-world-streamer/internal/factory"
	"github.com/annelo/go-world-streamer/internal/gameloop"
)

// PluginMeta holds metadata for a plugin
type PluginMeta struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	Author      string `json:"author" yaml:"author"`
	Description string `json:"description" yaml:"description"`
}

// HookType defines a named event hook
type HookType string

// Common hook types
const (
	// HookBeforeChunkGenerate receives the grid.ChunkID about to be generated.
	HookBeforeChunkGenerate HookType = "BeforeChunkGenerate"
	// HookAfterChunkGenerate receives the grid.ChunkID and the number of placed objects.
	HookAfterChunkGenerate HookType = "AfterChunkGenerate"
	// HookAfterChunkUnload receives the grid.ChunkID and the number of removed objects.
	HookAfterChunkUnload HookType = "AfterChunkUnload"
	// HookChunkPremarked receives the grid.ChunkID claimed by hand-authored content.
	HookChunkPremarked HookType = "ChunkPremarked"
	// HookObjectSkipped receives the content.Descriptor that had no builder.
	HookObjectSkipped HookType = "ObjectSkipped"
	// HookWorldEvent receives gameloop.WorldEvent values emitted by game systems.
	HookWorldEvent HookType = "WorldEvent"
	// HookWorldReset has no arguments.
	HookWorldReset HookType = "WorldReset"
	// Plugin load/unload hook types
	HookBeforePluginLoad   HookType = "BeforePluginLoad"
	HookAfterPluginLoad    HookType = "AfterPluginLoad"
	HookBeforePluginUnload HookType = "BeforePluginUnload"
	HookAfterPluginUnload  HookType = "AfterPluginUnload"
)

// HookFunc is the signature for hook handlers. args can be event-specific.
type HookFunc func(args ...interface{})

// CommandFunc is the signature for admin CLI command handlers.
type CommandFunc func(args []string) (string, error)

// CommandRegistration holds a single CLI command registration.
type CommandRegistration struct {
	// Name is the command name.
	Name string
	// Description is a brief help text for the command.
	Description string
	// Handler executes the command logic.
	Handler CommandFunc
}

// PluginRegistry allows registration of content builders and game systems.
type PluginRegistry interface {
	// RegisterBuilder registers a content builder for a descriptor type ("enemy/golem") or kind ("enemy").
	RegisterBuilder(key string, builder factory.Builder)
	// RegisterGameSystem registers a game loop system to be ticked every tick.
	RegisterGameSystem(sys gameloop.System)
	// Builders returns all registered content builders.
	Builders() []BuilderRegistration
	// GameSystems returns all registered game loop systems.
	GameSystems() []gameloop.System
	// RegisterPluginMeta registers metadata for a plugin.
	RegisterPluginMeta(meta PluginMeta)
	// PluginMetas returns all registered plugin metadata.
	PluginMetas() []PluginMeta
	// RegisterHook registers a hook handler for a given hook type.
	RegisterHook(hook HookType, fn HookFunc)
	// Hooks returns all handlers registered for a hook type.
	Hooks(hook HookType) []HookFunc
	// RegisterCommand registers an admin CLI command.
	RegisterCommand(name, description string, handler CommandFunc)
	// Commands returns all registered admin CLI commands.
	Commands() []CommandRegistration
	// MarkCore marks the boundary between core and plugin registrations.
	MarkCore()
	// ClearPlugins removes all registrations added after MarkCore.
	ClearPlugins()
	// RegisterPluginConfig registers a sample config struct for a plugin.
	RegisterPluginConfig(name string, sample interface{})
	// LoadPluginConfig loads a plugin's config YAML from the given directory into the registry.
	LoadPluginConfig(name, dir string) error
	// PluginConfig returns the loaded config object for a plugin.
	PluginConfig(name string) interface{}
}

// BuilderRegistration holds a single content builder registration.
type BuilderRegistration struct {
	// Key is a descriptor type or kind.
	Key string
	// Builder creates the visual and the gameplay record.
	Builder factory.Builder
}

// DefaultRegistry is the default implementation of PluginRegistry.
type DefaultRegistry struct {
	builders            []BuilderRegistration
	gameSystems         []gameloop.System
	pluginMetas         []PluginMeta
	commands            []CommandRegistration
	hooks               map[HookType][]HookFunc
	configSamples       map[string]interface{}
	configs             map[string]interface{}
	mu                  sync.RWMutex
	coreBuilderCount    int
	coreSystemCount     int
	coreCommandCount    int
	corePluginMetaCount int
	coreHooks           map[HookType][]HookFunc
}

// NewDefaultRegistry returns a new DefaultRegistry instance.
func NewDefaultRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		hooks:         make(map[HookType][]HookFunc),
		configSamples: make(map[string]interface{}),
		configs:       make(map[string]interface{}),
	}
}

// RegisterBuilder appends a content builder to the registry. Later registrations
// for the same key win when applied to a factory.
func (r *DefaultRegistry) RegisterBuilder(key string, builder factory.Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders = append(r.builders, BuilderRegistration{Key: key, Builder: builder})
}

// RegisterGameSystem appends a gameloop.System to the registry.
func (r *DefaultRegistry) RegisterGameSystem(sys gameloop.System) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gameSystems = append(r.gameSystems, sys)
}

// RegisterPluginMeta appends plugin metadata to the registry.
func (r *DefaultRegistry) RegisterPluginMeta(meta PluginMeta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pluginMetas = append(r.pluginMetas, meta)
}

// RegisterHook appends a hook handler for a given hook type.
func (r *DefaultRegistry) RegisterHook(hook HookType, fn HookFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[hook] = append(r.hooks[hook], fn)
}

// RegisterCommand appends a CLI command registration to the registry.
func (r *DefaultRegistry) RegisterCommand(name, description string, handler CommandFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, CommandRegistration{Name: name, Description: description, Handler: handler})
}

// RegisterPluginConfig registers a sample config struct for a plugin in the registry.
func (r *DefaultRegistry) RegisterPluginConfig(name string, sample interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configSamples[name] = sample
	r.configs[name] = sample
}

// LoadPluginConfig loads a plugin's YAML config from dir/name.yaml into the registry.
// A missing file keeps the registered sample.
func (r *DefaultRegistry) LoadPluginConfig(name, dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sample, ok := r.configSamples[name]
	if !ok {
		return nil
	}
	t := reflect.TypeOf(sample)
	if t.Kind() != reflect.Ptr {
		return fmt.Errorf("config sample for %s must be a pointer to struct", name)
	}
	newPtr := reflect.New(t.Elem()).Interface()
	path := filepath.Join(dir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, newPtr); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	r.configs[name] = newPtr
	return nil
}

// PluginConfig returns the loaded config object for a plugin, or default sample.
func (r *DefaultRegistry) PluginConfig(name string) interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configs[name]
}

// Builders returns all registered content builders in registration order.
func (r *DefaultRegistry) Builders() []BuilderRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]BuilderRegistration(nil), r.builders...)
}

// GameSystems returns all registered game systems.
func (r *DefaultRegistry) GameSystems() []gameloop.System {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]gameloop.System(nil), r.gameSystems...)
}

// PluginMetas returns all registered plugin metadata.
func (r *DefaultRegistry) PluginMetas() []PluginMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]PluginMeta(nil), r.pluginMetas...)
}

// Hooks returns all registered hook handlers for the given hook type.
func (r *DefaultRegistry) Hooks(hook HookType) []HookFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]HookFunc(nil), r.hooks[hook]...)
}

// Commands returns all registered CLI command registrations.
func (r *DefaultRegistry) Commands() []CommandRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]CommandRegistration(nil), r.commands...)
}

// Command looks a command up by name.
func (r *DefaultRegistry) Command(name string) (CommandRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.commands {
		if c.Name == name {
			return c, true
		}
	}
	return CommandRegistration{}, false
}

// MarkCore marks the current registry state as the core, so plugin additions can be cleared later.
func (r *DefaultRegistry) MarkCore() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coreBuilderCount = len(r.builders)
	r.coreSystemCount = len(r.gameSystems)
	r.coreCommandCount = len(r.commands)
	r.corePluginMetaCount = len(r.pluginMetas)
	r.coreHooks = make(map[HookType][]HookFunc, len(r.hooks))
	for k, v := range r.hooks {
		r.coreHooks[k] = append([]HookFunc{}, v...)
	}
}

// ClearPlugins removes all registrations added after the last core mark.
func (r *DefaultRegistry) ClearPlugins() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.coreBuilderCount <= len(r.builders) {
		r.builders = r.builders[:r.coreBuilderCount]
	}
	if r.coreSystemCount <= len(r.gameSystems) {
		r.gameSystems = r.gameSystems[:r.coreSystemCount]
	}
	if r.coreCommandCount <= len(r.commands) {
		r.commands = r.commands[:r.coreCommandCount]
	}
	if r.corePluginMetaCount <= len(r.pluginMetas) {
		r.pluginMetas = r.pluginMetas[:r.corePluginMetaCount]
	}
	r.hooks = make(map[HookType][]HookFunc, len(r.coreHooks))
	for k, v := range r.coreHooks {
		r.hooks[k] = append([]HookFunc{}, v...)
	}
}

// Trigger invokes every handler of a hook. A panicking handler is logged and
// does not prevent the remaining handlers from running.
func Trigger(reg PluginRegistry, logger *zap.SugaredLogger, hook HookType, args ...interface{}) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	for _, h := range reg.Hooks(hook) {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					hookPanicCount.Add(1)
					logger.Errorw("panic in hook", "hook", string(hook), "panic", rec)
				}
			}()
			h(args...)
		}()
	}
}

// ApplyBuilders registers every plugin builder in the factory.
func ApplyBuilders(reg PluginRegistry, f *factory.Factory) int {
	builders := reg.Builders()
	for _, b := range builders {
		f.Register(b.Key, b.Builder)
	}
	return len(builders)
}

// PluginAPIVersion defines the current plugin API version.
const PluginAPIVersion = "1"

// PluginManager handles loading of plugins from shared object files.
type PluginManager struct {
	// Dir is the directory where plugin .so files are located.
	Dir string
	// Logger receives load diagnostics; nil means no logging.
	Logger *zap.SugaredLogger
	// mu protects LoadPlugins from concurrent execution.
	mu sync.Mutex
}

// NewPluginManager creates a PluginManager for a given directory.
func NewPluginManager(dir string) *PluginManager {
	return &PluginManager{Dir: dir, Logger: zap.NewNop().Sugar()}
}

// Metrics for plugin loading
var (
	pluginLoadCount  = expvar.NewInt("plugins_loaded")
	pluginSkipCount  = expvar.NewInt("plugins_skipped")
	pluginErrorCount = expvar.NewInt("plugins_errors")
	hookPanicCount   = expvar.NewInt("plugin_hook_panics")
)

func (pm *PluginManager) log() *zap.SugaredLogger {
	if pm.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return pm.Logger
}

// readMeta looks for base.json, base.yaml or base.yml next to the shared object.
func (pm *PluginManager) readMeta(base string) (PluginMeta, bool) {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		metaPath := filepath.Join(pm.Dir, base+ext)
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}
		var meta PluginMeta
		if ext == ".json" {
			err = json.Unmarshal(data, &meta)
		} else {
			err = yaml.Unmarshal(data, &meta)
		}
		if err != nil {
			pm.log().Warnw("failed to parse plugin metadata", "path", metaPath, "error", err)
			continue
		}
		return meta, true
	}
	return PluginMeta{}, false
}

// LoadPlugins loads all plugins in pm.Dir and invokes their Register function.
func (pm *PluginManager) LoadPlugins(reg PluginRegistry) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	files, err := os.ReadDir(pm.Dir)
	if err != nil {
		pluginErrorCount.Add(1)
		return fmt.Errorf("cannot read plugin directory %s: %w", pm.Dir, err)
	}
	for _, f := range files {
		if filepath.Ext(f.Name()) != ".so" {
			continue
		}
		base := strings.TrimSuffix(f.Name(), ".so")
		if meta, ok := pm.readMeta(base); ok {
			if meta.Version != PluginAPIVersion {
				pm.log().Warnw("skipping plugin: version mismatch", "plugin", meta.Name, "got", meta.Version, "expected", PluginAPIVersion)
				pluginSkipCount.Add(1)
				continue
			}
			reg.RegisterPluginMeta(meta)
		}

		pluginPath := filepath.Join(pm.Dir, f.Name())
		Trigger(reg, pm.Logger, HookBeforePluginLoad, pluginPath)
		p, err := pluginpkg.Open(pluginPath)
		if err != nil {
			return fmt.Errorf("failed to open plugin %s: %w", pluginPath, err)
		}
		sym, err := p.Lookup("Register")
		if err != nil {
			pluginErrorCount.Add(1)
			pm.log().Warnw("no Register symbol", "path", pluginPath, "error", err)
			continue
		}
		registerFunc, ok := sym.(func(PluginRegistry))
		if !ok {
			pluginErrorCount.Add(1)
			pm.log().Warnw("invalid Register signature", "path", pluginPath)
			continue
		}
		if err := pm.register(reg, registerFunc, base); err != nil {
			pluginErrorCount.Add(1)
			pm.log().Errorw("plugin registration failed", "path", pluginPath, "error", err)
			continue
		}
		pluginLoadCount.Add(1)
		Trigger(reg, pm.Logger, HookAfterPluginLoad, pluginPath)
	}
	return nil
}

// LoadStatic registers a plugin linked into the binary, with the same metadata,
// config and hook handling as a shared object found in pm.Dir.
func (pm *PluginManager) LoadStatic(reg PluginRegistry, meta PluginMeta, register func(PluginRegistry)) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if meta.Version != PluginAPIVersion {
		pluginSkipCount.Add(1)
		return fmt.Errorf("plugin %s: version mismatch (got %s, expected %s)", meta.Name, meta.Version, PluginAPIVersion)
	}
	reg.RegisterPluginMeta(meta)
	Trigger(reg, pm.Logger, HookBeforePluginLoad, meta.Name)
	if err := pm.register(reg, register, meta.Name); err != nil {
		pluginErrorCount.Add(1)
		return err
	}
	pluginLoadCount.Add(1)
	Trigger(reg, pm.Logger, HookAfterPluginLoad, meta.Name)
	return nil
}

// register invokes a plugin's Register, catching panics, then loads its config.
func (pm *PluginManager) register(reg PluginRegistry, fn func(PluginRegistry), name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in plugin %s Register: %v", name, r)
		}
	}()
	fn(reg)
	if pm.Dir == "" {
		return nil
	}
	if err := reg.LoadPluginConfig(name, pm.Dir); err != nil {
		return fmt.Errorf("failed to load config for plugin %s: %w", name, err)
	}
	return nil
}

// UnloadPlugins triggers unload hooks for all loaded plugins.
func (pm *PluginManager) UnloadPlugins(reg PluginRegistry) {
	for _, meta := range reg.PluginMetas() {
		Trigger(reg, pm.Logger, HookBeforePluginUnload, meta)
	}
	for _, meta := range reg.PluginMetas() {
		Trigger(reg, pm.Logger, HookAfterPluginUnload, meta)
	}
}

// ReloadPlugins unloads existing plugins and reloads them.
func (pm *PluginManager) ReloadPlugins(reg PluginRegistry) error {
	pm.UnloadPlugins(reg)
	reg.ClearPlugins()
	return pm.LoadPlugins(reg)
}
