package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/domain/assembly"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/field"
	"github.com/wippyai/script-bridge/native"
)

type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

type cube struct {
	assembly.Object
	Health float32
	rec    *recorder
}

func (c *cube) Update() error {
	c.rec.add("update")
	return nil
}

func (c *cube) Destroy() error {
	_, present := c.Env().LookupNative(c.NativePtr)
	c.rec.add("destroy present=%v", present)
	return nil
}

type crate struct {
	assembly.Object
}

func (c *crate) Update() error {
	panic("crate exploded")
}

func testAssembly(rec *recorder) *assembly.Assembly {
	asm := assembly.New("game")
	assembly.Define[cube](asm, "Game.Props", "Cube", func() *cube { return &cube{Health: 100, rec: rec} }).
		Field(field.Editor(field.Ref("Health", scriptbridge.KindF32, func(c *cube) *float32 { return &c.Health }), "Stats"))
	assembly.Define[crate](asm, "Game", "Crate", nil)
	assembly.Define[crate](asm, "Game", "Broken", func() *crate { return nil })
	asm.Static(domain.StaticProject, "GetStartupScene", func(*assembly.Env, []any) (any, error) {
		return "Maps/Main", nil
	})
	asm.Static(domain.StaticProject, "OnLaunch", func(env *assembly.Env, _ []any) (any, error) {
		env.Log(domain.SeverityInfo, "launched")
		return nil, nil
	})
	return asm
}

type harness struct {
	t      *testing.T
	bridge *Bridge
	logs   *observer.ObservedLogs
	rec    *recorder
	dir    string
}

func newHarness(t *testing.T, asms ...*assembly.Assembly) *harness {
	t.Helper()
	rec := &recorder{}
	if len(asms) == 0 {
		asms = []*assembly.Assembly{testAssembly(rec)}
	}
	core, logs := observer.New(zap.DebugLevel)
	b := New(assembly.NewLoader(asms...), WithLogger(zap.New(core)))
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return &harness{t: t, bridge: b, logs: logs, rec: rec, dir: t.TempDir()}
}

func (h *harness) image(name string) string {
	h.t.Helper()
	path := filepath.Join(h.dir, name+".img")
	require.NoError(h.t, os.WriteFile(path, []byte(assembly.ImagePrefix+name), 0o644))
	return path
}

func (h *harness) load(name string) {
	h.t.Helper()
	require.NoError(h.t, h.bridge.LoadOrReloadDomain(context.Background(), h.image(name), "", false))
}

func (h *harness) warnings(msg string) int {
	return h.logs.FilterMessage(msg).Len()
}

func at(x, y, z float32) scriptbridge.Transform {
	return scriptbridge.Transform{
		Position: scriptbridge.Vector{X: x, Y: y, Z: z},
		Scale:    scriptbridge.Vector{X: 1, Y: 1, Z: 1},
	}
}

func TestLoad(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h := newHarness(t)
		require.Equal(t, StateUnloaded, h.bridge.State())
		h.load("game")

		require.Equal(t, StateLoaded, h.bridge.State())
		gen := h.bridge.Generation()
		require.Equal(t, uint64(1), gen.Number)
		require.Equal(t, 3, gen.Types)
		require.NotZero(t, gen.Digest)
		require.Equal(t, "Game/Props/Cube Game/Crate Game/Broken ", h.bridge.ListWorldObjectTypeNames())
	})

	t.Run("Missing image", func(t *testing.T) {
		h := newHarness(t)
		err := h.bridge.LoadOrReloadDomain(context.Background(), filepath.Join(h.dir, "nope"), "", false)
		require.Error(t, err)
		require.Equal(t, StateUnloaded, h.bridge.State())
	})

	t.Run("Unparsable image", func(t *testing.T) {
		h := newHarness(t)
		err := h.bridge.LoadOrReloadDomain(context.Background(), h.image("unknown"), "", false)
		require.Error(t, err)
		require.Equal(t, StateUnloaded, h.bridge.State())
		require.Nil(t, h.bridge.Domain())
	})

	t.Run("Missing world-object base", func(t *testing.T) {
		h := newHarness(t, assembly.New("bare", assembly.WithoutWorldObject()))
		err := h.bridge.LoadOrReloadDomain(context.Background(), h.image("bare"), "", false)
		require.ErrorIs(t, err, errors.MissingCapability(""))
		require.Equal(t, StateUnloaded, h.bridge.State())
		require.Zero(t, h.bridge.Types().Len())
	})

	t.Run("Support library rejected", func(t *testing.T) {
		h := newHarness(t)
		err := h.bridge.LoadOrReloadDomain(context.Background(), h.image("game"), "engine.lua", false)
		require.Error(t, err)
		require.Equal(t, StateUnloaded, h.bridge.State())

		// Binding is retried on the next load.
		h.load("game")
		require.Equal(t, StateLoaded, h.bridge.State())
	})

	t.Run("Editor flag", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.bridge.LoadOrReloadDomain(context.Background(), h.image("game"), "", true))
		stats, ok := h.bridge.Domain().Static(domain.StaticStats)
		require.True(t, ok)
		v, err := stats.Get("InEditor")
		require.NoError(t, err)
		require.Equal(t, true, v)
	})
}

func TestReloadInvalidation(t *testing.T) {
	h := newHarness(t)
	h.load("game")

	old := h.bridge.Instantiate("Cube", at(0, 0, 0), 1)
	require.NotEqual(t, scriptbridge.NoObject, old)
	require.NoError(t, h.bridge.RegisterNativeFunction("Ping", native.MustFunc(native.Sig(scriptbridge.KindVoid), func(native.Args) (any, error) {
		return nil, nil
	})))
	_, ok := h.bridge.Natives().Lookup("Ping")
	require.True(t, ok)
	oldDomain := h.bridge.Domain().(*assembly.Domain)

	h.load("game")

	_, ok = h.bridge.GetByHandle(old)
	require.False(t, ok)
	_, ok = h.bridge.GetByCounterpart(1)
	require.False(t, ok)
	_, ok = h.bridge.Natives().Lookup("Ping")
	require.False(t, ok)
	require.False(t, oldDomain.Env().HasNative("Ping"), "previous domain unregisters its natives")
	require.Empty(t, h.rec.events, "reload does not run destroy hooks")
	require.Equal(t, uint64(2), h.bridge.Generation().Number)

	fresh := h.bridge.Instantiate("Cube", at(0, 0, 0), 2)
	require.NotEqual(t, scriptbridge.NoObject, fresh)
	require.Equal(t, 1, h.bridge.Objects().Len())
}

func TestNativeProvider(t *testing.T) {
	rec := &recorder{}
	core, _ := observer.New(zap.DebugLevel)
	gamepads := 0
	b := New(assembly.NewLoader(testAssembly(rec)),
		WithLogger(zap.New(core)),
		WithNativeProvider(NativeProviderFunc(func(b *Bridge) error {
			return b.RegisterNativeFunction("GetNumGamepads", native.MustFunc(native.Sig(scriptbridge.KindS32), func(native.Args) (any, error) {
				gamepads++
				return 2, nil
			}))
		})))
	defer b.Close(context.Background())

	path := filepath.Join(t.TempDir(), "game.img")
	require.NoError(t, os.WriteFile(path, []byte("assembly:game"), 0o644))

	require.NoError(t, b.LoadOrReloadDomain(context.Background(), path, "", false))
	env := b.Domain().(*assembly.Domain).Env()
	require.True(t, env.HasNative("GetNumGamepads"))

	b.SetDeltaTime(0.25)
	require.Equal(t, float32(0.25), env.Stats().DeltaTime)
	require.Equal(t, int32(2), env.Input().Gamepads)
	require.Equal(t, 1, gamepads)

	require.NoError(t, b.LoadOrReloadDomain(context.Background(), path, "", false))
	require.True(t, b.Domain().(*assembly.Domain).Env().HasNative("GetNumGamepads"), "providers rerun on reload")
}

func TestRegisterBeforeLoad(t *testing.T) {
	h := newHarness(t)
	err := h.bridge.RegisterNativeFunction("Early", native.MustFunc(native.Sig(scriptbridge.KindVoid), func(native.Args) (any, error) {
		return nil, nil
	}))
	require.NoError(t, err)
	require.Zero(t, h.bridge.Natives().Len())
	require.Equal(t, 1, h.warnings("native function registered before a managed domain designated a sink"))
}
