package dom

import (
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Compiled selectors are cached process-wide; selector sets come from
// small configuration lists, so the cache stays tiny.
var (
	selMu    sync.Mutex
	selCache = map[string]cascadia.SelectorGroup{}
)

func compiled(selector string) (cascadia.SelectorGroup, error) {
	selMu.Lock()
	defer selMu.Unlock()
	if s, ok := selCache[selector]; ok {
		return s, nil
	}
	s, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, err
	}
	selCache[selector] = s
	return s, nil
}

// Matches reports whether n matches the CSS selector. Invalid selectors
// match nothing.
func Matches(n *html.Node, selector string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	s, err := compiled(selector)
	if err != nil {
		return false
	}
	return s.Match(n)
}

// First returns the first node under root (in document order) matching
// the selector, or nil.
func First(root *html.Node, selector string) *html.Node {
	s, err := compiled(selector)
	if err != nil || root == nil {
		return nil
	}
	return cascadia.Query(root, s)
}

// All returns every node under root matching the selector.
func All(root *html.Node, selector string) []*html.Node {
	s, err := compiled(selector)
	if err != nil || root == nil {
		return nil
	}
	return cascadia.QueryAll(root, s)
}

// ClosestSelector walks from n to the root and returns the first
// ancestor (or n itself) matching the selector.
func ClosestSelector(n *html.Node, selector string) *html.Node {
	return Closest(n, func(a *html.Node) bool { return Matches(a, selector) })
}
