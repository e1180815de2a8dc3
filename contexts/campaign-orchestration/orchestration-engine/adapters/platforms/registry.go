package platforms

import (
	"fmt"
	"sync"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

// Registry resolves the adapter for a platform identifier.
type Registry struct {
	mu       sync.RWMutex
	adapters map[entities.Platform]ports.PlatformAdapter
}

func NewRegistry(adapters ...ports.PlatformAdapter) *Registry {
	registry := &Registry{adapters: make(map[entities.Platform]ports.PlatformAdapter, len(adapters))}
	for _, adapter := range adapters {
		registry.Register(adapter)
	}
	return registry
}

func (r *Registry) Register(adapter ports.PlatformAdapter) {
	if adapter == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Platform()] = adapter
}

func (r *Registry) Adapter(platform entities.Platform) (ports.PlatformAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedPlatform, platform)
	}
	return adapter, nil
}

// NewSandboxRegistry registers a sandbox adapter for every supported platform.
func NewSandboxRegistry() (*Registry, map[entities.Platform]*Sandbox) {
	sandboxes := make(map[entities.Platform]*Sandbox, len(SupportedPlatforms))
	registry := NewRegistry()
	for _, platform := range SupportedPlatforms {
		sandbox := NewSandbox(platform)
		sandboxes[platform] = sandbox
		registry.Register(sandbox)
	}
	return registry, sandboxes
}
