package cache

import (
	"sync"

	"github.com/hairbrush/toolpath/pkg/core"
)

// Entry is a cached toolpath with its reconstructed segments.
type Entry struct {
	Toolpath core.Toolpath
	Segments []core.Segment
}

// ToolpathCache caches archived toolpaths by name to avoid repeated
// backend reads. Repeated gets of the same toolpath are common when a
// caller inspects a program it just compiled.
type ToolpathCache struct {
	m       sync.Mutex
	entries map[string]Entry
}

func NewToolpathCache() *ToolpathCache {
	return &ToolpathCache{
		entries: make(map[string]Entry),
	}
}

func (c *ToolpathCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.entries = make(map[string]Entry)
}

func (c *ToolpathCache) Get(name string) (Entry, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if e, ok := c.entries[name]; ok {
		return e, true
	}
	return Entry{}, false
}

func (c *ToolpathCache) Add(tp core.Toolpath, segments []core.Segment) {
	c.m.Lock()
	defer c.m.Unlock()
	c.entries[tp.Name] = Entry{Toolpath: tp, Segments: segments}
}

func (c *ToolpathCache) Remove(name string) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.entries, name)
}

func (c *ToolpathCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.entries)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
