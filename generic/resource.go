package generic

import "sync"

// =============================================================================
// RESOURCE REGISTRY
// =============================================================================

// Storage keeps only a resource's id. Domain packages register their
// concrete types in init so rows read back carry them, e.g. a stored
// "vacation" comes back as leave.CategoryVacation.

var (
	registryMu sync.RWMutex
	registry   = make(map[string]ResourceType)
)

// RegisterResource makes r resolvable by its id.
func RegisterResource(r ResourceType) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[r.ResourceID()] = r
}

// ResolveResource returns the registered type for id, or an
// unregistered placeholder carrying only the id.
func ResolveResource(id string) ResourceType {
	registryMu.RLock()
	r, ok := registry[id]
	registryMu.RUnlock()
	if ok {
		return r
	}
	return StringResource{ID: id, Domain: "unregistered"}
}

// StringResource is a ResourceType with no domain package behind it.
type StringResource struct {
	ID     string
	Domain string
}

func (r StringResource) ResourceID() string     { return r.ID }
func (r StringResource) ResourceDomain() string { return r.Domain }
