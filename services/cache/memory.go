package cachesvc

import (
	"context"
	"sync"

	"github.com/trezcool/quizadmin/core/notification"
)

// Memory is a per-instance template cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]notification.Template
}

var _ notification.TemplateCache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]notification.Template)}
}

func (c *Memory) Get(_ context.Context, kind notification.Kind, lang string) (notification.Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tmpl, ok := c.entries[notification.CacheKey(kind, lang)]
	return tmpl, ok
}

func (c *Memory) Set(_ context.Context, tmpl notification.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[notification.CacheKey(tmpl.Kind, tmpl.Language)] = tmpl
}

func (c *Memory) Delete(_ context.Context, kind notification.Kind, lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, notification.CacheKey(kind, lang))
}

func (c *Memory) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]notification.Template)
}

// Len returns the number of cached templates.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
