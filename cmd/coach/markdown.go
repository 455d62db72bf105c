package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	lru "github.com/hashicorp/golang-lru/v2"
)

// markdownCache renders suggestion descriptions with glamour and memoizes the
// result. Re-renders happen on every tick, so repeat renders of the same
// description must be cheap.
type markdownCache struct {
	mu       sync.Mutex
	width    int
	renderer *glamour.TermRenderer
	cache    *lru.Cache[string, string]
}

func newMarkdownCache() *markdownCache {
	cache, _ := lru.New[string, string](128)
	return &markdownCache{cache: cache}
}

// Render renders content as terminal markdown wrapped to width, falling back
// to the raw text if the renderer is unavailable.
func (m *markdownCache) Render(content string, width int) string {
	if content == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}

	key := fmt.Sprintf("%d|%s", width, content)
	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, ok := m.cache.Get(key); ok {
		return cached
	}

	if m.renderer == nil || m.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content
		}
		m.renderer = renderer
		m.width = width
	}

	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	rendered = strings.TrimSpace(rendered)
	m.cache.Add(key, rendered)
	return rendered
}
