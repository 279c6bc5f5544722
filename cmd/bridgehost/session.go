package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/bridge"
	"github.com/wippyai/script-bridge/config"
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/domain/assembly"
	"github.com/wippyai/script-bridge/domain/luadomain"
	"github.com/wippyai/script-bridge/domain/wasmdomain"
	"github.com/wippyai/script-bridge/object"
)

// session drives one bridge and its demo world from the command line.
type session struct {
	cfg    *config.Config
	log    *zap.Logger
	bridge *bridge.Bridge
	world  *world
	scene  string
	frame  int
}

func newSession(cfg *config.Config, log *zap.Logger, opts ...bridge.Option) *session {
	loader := domain.NewDetector(map[domain.Format]domain.Loader{
		domain.FormatLua:      luadomain.NewLoader(),
		domain.FormatWasm:     wasmdomain.NewLoader(wasmdomain.Config{MemoryLimitPages: cfg.MemoryLimitPages}),
		domain.FormatAssembly: assembly.NewLoader(demoAssembly()),
	})
	w := newWorld(log.Named("world"))
	opts = append([]bridge.Option{bridge.WithLogger(log), bridge.WithNativeProvider(w)}, opts...)
	b := bridge.New(loader, opts...)
	w.attach(b)
	return &session{cfg: cfg, log: log, bridge: b, world: w}
}

// Load loads or reloads the configured image, spawns the configured
// objects and runs the project launch hook.
func (s *session) Load(ctx context.Context) error {
	if err := s.bridge.LoadOrReloadDomain(ctx, s.cfg.Image, s.cfg.Support, s.cfg.Editor); err != nil {
		return err
	}
	s.frame = 0
	for _, sp := range s.cfg.Spawn {
		if h, _ := s.world.spawn(sp.Type, sp.Transform()); h == scriptbridge.NoObject {
			s.log.Warn("spawn failed", zap.String("type", sp.Type))
		}
	}
	s.bridge.RunProjectOnLaunchHook()
	s.scene = s.bridge.GetStartupSceneName()
	if s.scene != "" && s.world.scene == "" {
		s.world.scene = s.scene
	}
	return nil
}

// Spawn creates one object at the origin.
func (s *session) Spawn(typeName string) (scriptbridge.Handle, error) {
	h, _ := s.world.spawn(typeName, scriptbridge.IdentityTransform())
	if h == scriptbridge.NoObject {
		return h, fmt.Errorf("cannot spawn %q", typeName)
	}
	return h, nil
}

// Destroy destroys the object behind h and its native side.
func (s *session) Destroy(h scriptbridge.Handle) {
	e, ok := s.bridge.Objects().Get(h)
	if !ok {
		return
	}
	s.world.destroy(e.Counterpart)
}

// Frame advances every live object by one frame.
func (s *session) Frame() {
	s.bridge.SetDeltaTime(s.cfg.Delta)
	s.bridge.TickAll()
	s.frame++
}

// Summary describes every live object in handle order.
func (s *session) Summary() []string {
	var out []string
	s.bridge.Objects().Each(func(e *object.Entry) bool {
		pos := s.bridge.GetVectorField(e.Handle, scriptbridge.FieldPosition)
		rot := s.bridge.GetVectorField(e.Handle, scriptbridge.FieldRotation)
		out = append(out, fmt.Sprintf("#%d %s pos=%s rot=%s", e.Handle, e.TypeName, pos, rot))
		return true
	})
	return out
}

// Close destroys every object and releases the bridge.
func (s *session) Close(ctx context.Context) error {
	for _, h := range s.bridge.Objects().Handles() {
		s.bridge.Destroy(h)
	}
	return s.bridge.Close(ctx)
}
