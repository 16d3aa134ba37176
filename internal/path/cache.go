package path

import "github.com/origadmin/mapgen/internal/descriptor"

type cacheKey struct {
	root   string
	dotted string
	role   Role
}

// Cache memoizes resolved references within one round. Identity is the
// (root FQN, dotted name, role) triple, so two independently derived chains
// with the same dotted name share one resolution. The cache must not outlive
// its round: a later round may re-resolve the same nominal type to a
// structurally different descriptor.
type Cache struct {
	refs map[cacheKey]*Reference
}

// NewCache creates an empty per-round reference cache.
func NewCache() *Cache {
	return &Cache{refs: make(map[cacheKey]*Reference)}
}

// Get returns the memoized reference for the triple, if present.
func (c *Cache) Get(root *descriptor.TypeDescriptor, dotted string, role Role) (*Reference, bool) {
	ref, ok := c.refs[cacheKey{root: root.FQN(), dotted: dotted, role: role}]
	return ref, ok
}

// Put memoizes a resolved reference.
func (c *Cache) Put(ref *Reference) {
	c.refs[cacheKey{root: ref.root.FQN(), dotted: ref.FullName(), role: ref.role}] = ref
}

// Len returns the number of memoized references.
func (c *Cache) Len() int { return len(c.refs) }
