package main

import (
	"fmt"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/domain/assembly"
	"github.com/wippyai/script-bridge/field"
)

// demoImage is the image content that loads the built-in demo assembly.
const demoImage = "assembly:demo"

type spinner struct {
	assembly.Object
	Speed float32
	Mesh  string
}

func (s *spinner) Begin() error {
	if s.Mesh == "" {
		return nil
	}
	_, err := assembly.NewMesh(&s.Object, s.Mesh)
	return err
}

func (s *spinner) Update() error {
	s.Rotation.Y += s.Speed * s.Env().Stats().DeltaTime
	return nil
}

// beacon plays a sound when placed and releases it when destroyed.
type beacon struct {
	assembly.Object
	Sound string
	sound scriptbridge.Counterpart
}

func (b *beacon) Begin() error {
	v, err := b.Native("LoadSound", b.Sound)
	if err != nil {
		return err
	}
	b.sound, _ = v.(scriptbridge.Counterpart)
	_, err = b.Native("PlaySound", b.sound)
	return err
}

func (b *beacon) Destroy() error {
	if b.sound == 0 {
		return nil
	}
	_, err := b.Native("ReleaseSound", b.sound)
	b.sound = 0
	return err
}

// emitter spawns Count spinners in a row when placed.
type emitter struct {
	assembly.Object
	Count    int32
	children []domain.Instance
}

func (e *emitter) Begin() error {
	for i := int32(0); i < e.Count; i++ {
		t := scriptbridge.IdentityTransform()
		t.Position = e.Position.Add(scriptbridge.Vector{X: float32(i + 1)})
		child, ok := e.Spawn("Demo.Spinner", t)
		if !ok {
			return fmt.Errorf("spawn child %d", i)
		}
		e.children = append(e.children, child)
	}
	return nil
}

func (e *emitter) Destroy() error {
	for _, c := range e.children {
		if v, err := c.Type().Fields.Get(c, scriptbridge.FieldNative); err == nil {
			if _, err := e.Native("DestroyObject", v); err != nil {
				return err
			}
		}
	}
	e.children = nil
	return nil
}

func demoAssembly() *assembly.Assembly {
	asm := assembly.New("demo")
	assembly.Define[spinner](asm, "Demo", "Spinner", func() *spinner { return &spinner{Speed: 90, Mesh: "Meshes/Cube"} }).
		Field(field.Editor(field.Ref("Speed", scriptbridge.KindF32, func(s *spinner) *float32 { return &s.Speed }), "Motion")).
		Field(field.Editor(field.Ref("Mesh", scriptbridge.KindString, func(s *spinner) *string { return &s.Mesh }), "Looks")).
		Method("Reverse", func(s *spinner) error { s.Speed = -s.Speed; return nil })
	assembly.Define[beacon](asm, "Demo", "Beacon", func() *beacon { return &beacon{Sound: "Sounds/Ping"} }).
		Field(field.Editor(field.Ref("Sound", scriptbridge.KindString, func(b *beacon) *string { return &b.Sound }), "Audio"))
	assembly.Define[emitter](asm, "Demo", "Emitter", func() *emitter { return &emitter{Count: 2} }).
		Field(field.Editor(field.Ref("Count", scriptbridge.KindS32, func(e *emitter) *int32 { return &e.Count }), "Spawning"))

	asm.Static(domain.StaticProject, "GetStartupScene", func(*assembly.Env, []any) (any, error) { return "Demo/Main", nil })
	asm.Static(domain.StaticProject, "GetProjectName", func(*assembly.Env, []any) (any, error) { return "Bridge Demo", nil })
	asm.Static(domain.StaticProject, "OnLaunch", func(env *assembly.Env, _ []any) (any, error) {
		env.Log(0, "demo project launched")
		if env.HasNative("LoadScene") {
			return env.Native("LoadScene", "Demo/Main")
		}
		return nil, nil
	})
	return asm
}
