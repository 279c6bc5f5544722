package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/config"
)

const luaImage = `
local Rock = Engine.Class("Demo.Rock", Engine.WorldObject, {
  Engine.Property("Mass", "f32", 5, "Physics"),
  Engine.Property("Hit", "bool", false, "Physics"),
})

function Rock:Begin()
  self.Hit = Engine.Collision.LineTrace(Engine.Vector.New(0, -5, 0), Engine.Vector.New(0, 5, 0))
  if self.Mass > 1 then
    Engine.WorldObject.Spawn("Demo.Pebble", Engine.Transform(Engine.Vector.New(10, 0, 0)))
  end
end

Engine.Class("Demo.Pebble", Rock, {
  Engine.Property("Mass", "f32", 0.5, "Physics"),
})

Project = {}
function Project.GetStartupScene() return "Lua/Main" end
`

func writeImage(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testSession(t *testing.T, cfg *config.Config) (*session, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	s := newSession(cfg, zap.New(core))
	require.NoError(t, s.Load(context.Background()))
	return s, logs
}

func TestSession_Assembly(t *testing.T) {
	cfg := config.Default()
	cfg.Image = writeImage(t, "demo.image", demoImage)
	cfg.Delta = 0.5
	cfg.Spawn = []config.Spawn{
		{Type: "Demo.Spinner", Position: config.Vec{1, 0, 0}},
		{Type: "Demo.Emitter"},
		{Type: "Demo.Beacon"},
	}
	s, logs := testSession(t, cfg)

	assert.Equal(t, "Demo/Spinner Demo/Beacon Demo/Emitter ", s.bridge.ListWorldObjectTypeNames())
	assert.Equal(t, "Demo/Main", s.scene)
	assert.Equal(t, "Demo/Main", s.world.scene)
	assert.Equal(t, "Bridge Demo", s.bridge.GetProjectName())
	assert.Equal(t, 1, logs.FilterMessage("demo project launched").Len())

	// Spinner, emitter, two emitted spinners and the beacon.
	require.Equal(t, 5, s.bridge.Objects().Len())
	assert.Len(t, s.world.meshes, 3)
	assert.Len(t, s.world.sounds, 1)

	s.Frame()
	assert.Equal(t, scriptbridge.Vector{Y: 45}, s.bridge.GetVectorField(1, scriptbridge.FieldRotation))
	assert.Equal(t, scriptbridge.Vector{X: 2}, s.bridge.GetVectorField(4, scriptbridge.FieldPosition))
	assert.Contains(t, s.Summary()[0], "#1 Demo/Spinner")

	s.Destroy(2)
	assert.Equal(t, []scriptbridge.Handle{1, 5}, s.bridge.Objects().Handles())
	assert.Len(t, s.world.meshes, 1)
	assert.Len(t, s.world.transforms, 2)

	require.NoError(t, s.Close(context.Background()))
	assert.Empty(t, s.world.sounds)
	assert.Empty(t, s.world.transforms)
}

func TestSession_Spawn(t *testing.T) {
	cfg := config.Default()
	cfg.Image = writeImage(t, "demo.image", demoImage)
	s, _ := testSession(t, cfg)
	defer s.Close(context.Background())

	h, err := s.Spawn("Demo.Spinner")
	require.NoError(t, err)
	assert.Equal(t, "f32 Motion:Speed;string Looks:Mesh;", s.bridge.EditorProperties(h))

	_, err = s.Spawn("Demo.Missing")
	require.Error(t, err)
	assert.Equal(t, 1, s.bridge.Objects().Len())
	assert.Len(t, s.world.transforms, 1)
}

func TestSession_Reload(t *testing.T) {
	cfg := config.Default()
	cfg.Image = writeImage(t, "demo.image", demoImage)
	cfg.Spawn = []config.Spawn{{Type: "Demo.Spinner"}}
	s, _ := testSession(t, cfg)
	defer s.Close(context.Background())

	_, err := s.Spawn("Demo.Beacon")
	require.NoError(t, err)
	require.Equal(t, 2, s.bridge.Objects().Len())

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, uint64(2), s.bridge.Generation().Number)
	assert.Equal(t, 1, s.bridge.Objects().Len())
	assert.Len(t, s.world.transforms, 1)
	assert.Equal(t, 16, s.bridge.Natives().Len())
}

func TestSession_Lua(t *testing.T) {
	cfg := config.Default()
	cfg.Image = writeImage(t, "demo.lua", luaImage)
	cfg.Spawn = []config.Spawn{{Type: "Demo.Rock"}}
	s, _ := testSession(t, cfg)
	defer s.Close(context.Background())

	assert.Equal(t, "lua", s.bridge.Generation().Domain)
	assert.Equal(t, "Lua/Main", s.scene)
	require.Equal(t, 2, s.bridge.Objects().Len())

	hit, ok := s.bridge.GetField(1, "Hit")
	require.True(t, ok)
	assert.Equal(t, true, hit)

	mass, ok := s.bridge.GetField(2, "Mass")
	require.True(t, ok)
	assert.Equal(t, float32(0.5), mass)
	assert.Equal(t, scriptbridge.Vector{X: 10}, s.bridge.GetVectorField(2, scriptbridge.FieldPosition))
}

func TestWorld_LineTrace(t *testing.T) {
	w := newWorld(zap.NewNop())
	w.transforms[0x10] = scriptbridge.Transform{Position: scriptbridge.Vector{X: 1}}

	assert.True(t, w.lineTrace(scriptbridge.Vector{X: 1, Y: -5}, scriptbridge.Vector{X: 1, Y: 5}))
	assert.True(t, w.lineTrace(scriptbridge.Vector{X: 1.4}, scriptbridge.Vector{X: 1.4}))
	assert.False(t, w.lineTrace(scriptbridge.Vector{Y: -1}, scriptbridge.Vector{X: 2, Y: -1}))
	assert.False(t, w.lineTrace(scriptbridge.Vector{X: 3}, scriptbridge.Vector{X: 5}))
}

func TestLogTail(t *testing.T) {
	tail := newLogTail(2)
	log, err := tail.Logger("info")
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("one")
	log.Info("two")
	log.Warn("three")

	lines := tail.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "two")
	assert.Contains(t, lines[1], "three")

	_, err = tail.Logger("loud")
	require.Error(t, err)
}
