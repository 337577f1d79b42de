package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownFeature is returned when a feature key is not registered.
var ErrUnknownFeature = errors.New("unknown feature")

var (
	registry   = make(map[string]Feature)
	registryMu sync.RWMutex
)

// Register adds a feature to the registry.
// Panics if a feature with the same key is already registered.
func Register(f Feature) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[f.Key]; exists {
		panic(fmt.Sprintf("feature already registered: %s", f.Key))
	}

	if f.Label == "" {
		f.Label = f.Key
	}

	registry[f.Key] = f
}

// Get returns a feature by key.
// Returns false if not found.
func Get(key string) (Feature, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	f, ok := registry[key]
	return f, ok
}

// Lookup is Get with an error suitable for handlers.
func Lookup(key string) (Feature, error) {
	f, ok := Get(key)
	if !ok {
		return Feature{}, fmt.Errorf("%w: %s", ErrUnknownFeature, key)
	}
	return f, nil
}

// All returns all registered features.
// Sorted by group then by key for consistent ordering.
func All() []Feature {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Feature, 0, len(registry))
	for _, f := range registry {
		result = append(result, f)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// ByGroup returns all features for a specific group.
// Sorted by key for consistent ordering.
func ByGroup(group string) []Feature {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []Feature
	for _, f := range registry {
		if f.Group == group {
			result = append(result, f)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Groups returns all unique group names.
// Sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, f := range registry {
		seen[f.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// FeatureCount returns the number of registered features.
func FeatureCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered features.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Feature)
}
