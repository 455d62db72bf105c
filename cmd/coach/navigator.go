package main

import "sync"

// pageNavigator is the host's route primitive. It doubles as the "current
// page" signal: the tracker reads it at emission time, and every route change
// is forwarded to the sync engine for page-view tracking.
type pageNavigator struct {
	mu       sync.Mutex
	page     string
	onChange func(page string)
}

func newPageNavigator(initial string) *pageNavigator {
	return &pageNavigator{page: initial}
}

// setOnChange wires the page-change callback. Called once during assembly,
// before any navigation happens.
func (n *pageNavigator) setOnChange(fn func(page string)) {
	n.mu.Lock()
	n.onChange = fn
	n.mu.Unlock()
}

func (n *pageNavigator) Goto(route string) {
	n.mu.Lock()
	n.page = route
	fn := n.onChange
	n.mu.Unlock()
	if fn != nil {
		fn(route)
	}
}

// CurrentPage reports the page the user is on right now.
func (n *pageNavigator) CurrentPage() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.page
}
