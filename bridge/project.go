package bridge

import (
	"go.uber.org/zap"

	"github.com/wippyai/script-bridge/domain"
)

// ListWorldObjectTypeNames returns every instantiable type as its
// slash-delimited qualified name followed by a single space.
func (b *Bridge) ListWorldObjectTypeNames() string {
	return b.types.Names()
}

// GetStartupSceneName returns Project.GetStartupScene(), or "" when the
// project type or method is missing.
func (b *Bridge) GetStartupSceneName() string {
	s, _ := b.callProject("GetStartupScene").(string)
	return s
}

// GetProjectName returns Project.GetProjectName(), or "".
func (b *Bridge) GetProjectName() string {
	s, _ := b.callProject("GetProjectName").(string)
	return s
}

// RunProjectOnLaunchHook runs Project.OnLaunch().
func (b *Bridge) RunProjectOnLaunchHook() {
	b.callProject("OnLaunch")
}

func (b *Bridge) callProject(method string) (v any) {
	defer b.guard("Project." + method)

	if b.current == nil {
		b.log.Warn("project query without a loaded domain", zap.String("method", method))
		return nil
	}
	project, ok := b.current.Static(domain.StaticProject)
	if !ok {
		b.log.Error("failed to load project type", zap.String("static", domain.StaticProject))
		return nil
	}
	v, err := project.Call(method)
	if err != nil {
		if isNotFound(err) {
			b.log.Error("failed to load project method", zap.String("method", domain.StaticProject+"."+method+"()"))
			return nil
		}
		b.log.Error("project method failed", zap.String("method", method), zap.Error(err))
		return nil
	}
	return v
}
