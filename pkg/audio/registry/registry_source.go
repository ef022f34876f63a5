package registry

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/xaionaro-go/audiodelta/pkg/audio/types"
)

type SourceFactory interface {
	// CanOpen reports whether the factory is willing to try the given path.
	CanOpen(path string) bool
	NewSource(ctx context.Context, path string) (types.Source, error)
}

type sourceFactoryWithPriority struct {
	Priority int
	SourceFactory
}

var (
	sourceFactoryRegistry       = map[reflect.Type]sourceFactoryWithPriority{}
	sourceFactoryRegistryLocker sync.Mutex
)

func factoryType(factory SourceFactory) reflect.Type {
	t := reflect.ValueOf(factory).Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func RegisterSourceFactory(
	priority int,
	sourceFactory SourceFactory,
) {
	sourceFactoryRegistryLocker.Lock()
	defer sourceFactoryRegistryLocker.Unlock()
	t := factoryType(sourceFactory)
	if _, ok := sourceFactoryRegistry[t]; ok {
		panic(fmt.Errorf("there is already registered a factory of Source of type %v", t))
	}
	sourceFactoryRegistry[t] = sourceFactoryWithPriority{
		Priority:      priority,
		SourceFactory: sourceFactory,
	}
}

// UnregisterSourceFactory removes the factory of the same type as the given one.
func UnregisterSourceFactory(sourceFactory SourceFactory) {
	sourceFactoryRegistryLocker.Lock()
	defer sourceFactoryRegistryLocker.Unlock()
	delete(sourceFactoryRegistry, factoryType(sourceFactory))
}

// SourceFactories returns the registered factories, the highest priority first.
func SourceFactories() []SourceFactory {
	sourceFactoryRegistryLocker.Lock()
	var factoriesWithPriorities []sourceFactoryWithPriority
	for _, factory := range sourceFactoryRegistry {
		factoriesWithPriorities = append(factoriesWithPriorities, factory)
	}
	sourceFactoryRegistryLocker.Unlock()

	sort.SliceStable(factoriesWithPriorities, func(i, j int) bool {
		a, b := factoriesWithPriorities[i], factoriesWithPriorities[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return factoryType(a.SourceFactory).String() < factoryType(b.SourceFactory).String()
	})

	var factories []SourceFactory
	for _, factory := range factoriesWithPriorities {
		factories = append(factories, factory.SourceFactory)
	}

	return factories
}
