package luadomain

import (
	"context"
	_ "embed"
	"os"

	"github.com/Shopify/go-lua"
	"go.uber.org/zap"

	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
)

//go:embed engine.lua
var builtinSupport string

// Loader creates Lua domains. Every load gets a fresh Lua state with the
// support library executed before the image.
type Loader struct {
	support *support
}

type support struct {
	source string
	chunk  string
}

// NewLoader creates a loader with no support library bound yet.
func NewLoader() *Loader {
	return &Loader{}
}

// BindSupport reads and syntax-checks the support library at path. An empty
// path selects the embedded library.
func (ld *Loader) BindSupport(_ context.Context, path string) error {
	s := &support{source: builtinSupport, chunk: "=engine"}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Load("read support library "+path, err)
		}
		s = &support{source: string(data), chunk: "@" + path}
	}
	if err := lua.LoadBuffer(lua.NewState(), s.source, s.chunk, ""); err != nil {
		return errors.ParseFailed("support library "+s.chunk, err)
	}
	ld.support = s
	Logger().Debug("support library bound", zap.String("chunk", s.chunk))
	return nil
}

// Load runs the support library and then image in a new Lua state and
// collects the declared classes.
func (ld *Loader) Load(ctx context.Context, image []byte) (domain.Domain, error) {
	if ld.support == nil {
		if err := ld.BindSupport(ctx, ""); err != nil {
			return nil, err
		}
	}

	l := lua.NewState()
	lua.OpenLibraries(l)
	d := &Domain{l: l}
	l.NewTable()
	l.SetField(lua.RegistryIndex, refsKey)

	if err := lua.LoadBuffer(l, ld.support.source, ld.support.chunk, ""); err != nil {
		return nil, errors.ParseFailed("support library", err)
	}
	d.pushHost(l)
	if err := l.ProtectedCall(1, 0, 0); err != nil {
		return nil, errors.Load("run support library", err)
	}

	if err := lua.LoadBuffer(l, string(image), "=image", ""); err != nil {
		return nil, errors.ParseFailed("lua image", err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return nil, errors.Load("run lua image", err)
	}
	l.SetTop(0)

	if err := d.collectTypes(); err != nil {
		return nil, err
	}
	Logger().Debug("lua domain loaded", zap.Int("types", len(d.types)))
	return d, nil
}

// Close is a no-op; Lua states are owned by their domains.
func (ld *Loader) Close(context.Context) error { return nil }
