package wasmdomain

import (
	"context"
	"os"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/internal/wasmbin"
)

// Config holds configuration for guest runtimes.
type Config struct {
	// MemoryLimitPages caps guest memory in 64KB pages. 0 keeps the wazero
	// default of 65536 pages.
	MemoryLimitPages uint32
}

// Loader creates wasm domains. Compiled code is cached across loads, so a
// reload of an unchanged image skips compilation.
type Loader struct {
	cfg     Config
	cache   wazero.CompilationCache
	support []byte
}

// NewLoader creates a loader with its own compilation cache.
func NewLoader(cfg Config) *Loader {
	return &Loader{cfg: cfg, cache: wazero.NewCompilationCache()}
}

// BindSupport reads the support module at path. It is instantiated as
// "engine_support" ahead of every guest. An empty path binds nothing.
func (ld *Loader) BindSupport(_ context.Context, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Load("read support module "+path, err)
	}
	if _, err := wasmbin.Imports(data); err != nil {
		return errors.ParseFailed("support module "+path, err)
	}
	ld.support = data
	Logger().Debug("support module bound", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// Load instantiates image in a fresh runtime and runs its registration
// export.
func (ld *Loader) Load(ctx context.Context, image []byte) (domain.Domain, error) {
	imports, err := wasmbin.Imports(image)
	if err != nil {
		return nil, errors.ParseFailed("wasm image", err)
	}
	for _, imp := range imports {
		switch imp.Module {
		case HostModule:
		case SupportModule:
			if ld.support == nil {
				return nil, errors.MissingCapability("support module for import " + imp.Module + "." + imp.Name)
			}
		default:
			return nil, errors.Unsupported(errors.PhaseLoad, "import from module "+imp.Module)
		}
	}

	cfg := wazero.NewRuntimeConfig().WithCompilationCache(ld.cache)
	if ld.cfg.MemoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(ld.cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)

	d, err := ld.instantiate(ctx, rt, image)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	Logger().Debug("wasm domain loaded", zap.Int("types", len(d.types)), zap.Int("bytes", len(image)))
	return d, nil
}

func (ld *Loader) instantiate(ctx context.Context, rt wazero.Runtime, image []byte) (*Domain, error) {
	d := newDomain(rt)
	if err := d.instantiateHost(ctx, rt); err != nil {
		return nil, err
	}
	if ld.support != nil {
		cfg := wazero.NewModuleConfig().WithName(SupportModule)
		if _, err := rt.InstantiateWithConfig(ctx, ld.support, cfg); err != nil {
			return nil, errors.Load("instantiate support module", err)
		}
	}

	compiled, err := rt.CompileModule(ctx, image)
	if err != nil {
		return nil, errors.ParseFailed("wasm image", err)
	}
	var missing []string
	if _, ok := compiled.ExportedMemories()[ExportMemory]; !ok {
		missing = append(missing, GuestModule+"#"+ExportMemory)
	}
	funcs := compiled.ExportedFunctions()
	for _, name := range requiredExports {
		if _, ok := funcs[name]; !ok {
			missing = append(missing, GuestModule+"#"+name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewMissingExportsError(missing)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(GuestModule))
	if err != nil {
		return nil, errors.Load("instantiate guest", err)
	}
	d.mod = mod

	if _, err := d.invoke(ExportRegister); err != nil {
		return nil, errors.Load("run "+ExportRegister, err)
	}
	if d.regErr != nil {
		return nil, d.regErr
	}
	if err := d.buildTypes(); err != nil {
		return nil, err
	}
	return d, nil
}

// Close releases the compilation cache.
func (ld *Loader) Close(ctx context.Context) error {
	return ld.cache.Close(ctx)
}
