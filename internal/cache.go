package gudgeontop

import (
	"context"
	"sync"
)

// ComponentLister is the part of the API the tester needs to build its form
type ComponentLister interface {
	TestComponents(ctx context.Context) (TestComponents, error)
}

// Cache memoizes the tester component lists. They only change when the
// backend configuration is reloaded, so one successful fetch is kept until clear.
type Cache struct {
	ComponentLister

	mu         sync.Mutex
	components *TestComponents
}

func NewCache(lister ComponentLister) *Cache {
	return &Cache{ComponentLister: lister}
}

func (c *Cache) TestComponents(ctx context.Context) (TestComponents, error) {
	c.mu.Lock()
	cached := c.components
	c.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	components, err := c.ComponentLister.TestComponents(ctx)
	if err != nil {
		return TestComponents{}, err
	}

	c.mu.Lock()
	c.components = &components
	c.mu.Unlock()
	return components, nil
}

// Cached returns the memoized lists without fetching
func (c *Cache) Cached() (TestComponents, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.components == nil {
		return TestComponents{}, false
	}
	return *c.components, true
}

func (c *Cache) NumberOfTargets(testType string) int {
	components, _ := c.Cached()
	return len(components.ForType(testType))
}

func (c *Cache) MaxTargetNameLen() int {
	components, _ := c.Cached()
	maxLen := 0
	for _, names := range [][]string{components.Consumers, components.Groups, components.Resolvers} {
		for _, name := range names {
			maxLen = max(maxLen, len(name))
		}
	}
	return maxLen
}

func (c *Cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components = nil
}
