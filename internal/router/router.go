// Package router maps a request path to a registered Provider using a
// radix trie keyed on path segments, giving O(|path|) lookup regardless
// of provider count.
package router

import (
	"fmt"
	"net/url"
	"strings"
)

// Provider binds a mount path to an origin, with optional fallback
// handling. Immutable after Router construction.
type Provider struct {
	Mount                string
	Origin               *url.URL
	FallbackPath         string
	SuccessEvenNoContent bool
}

type node struct {
	children map[string]*node
	provider *Provider
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// Router is a read-only radix trie of mount-path -> Provider built once
// at startup.
type Router struct {
	root *node
}

// New builds a Router from a set of providers, rejecting ambiguous
// (duplicate) mount paths.
func New(providers []Provider) (*Router, error) {
	root := newNode()
	for i := range providers {
		p := providers[i]
		segs := splitMount(p.Mount)
		cur := root
		for _, s := range segs {
			next, ok := cur.children[s]
			if !ok {
				next = newNode()
				cur.children[s] = next
			}
			cur = next
		}
		if cur.provider != nil {
			return nil, fmt.Errorf("router: duplicate mount path %q", p.Mount)
		}
		cur.provider = &p
	}
	return &Router{root: root}, nil
}

func splitMount(mount string) []string {
	trimmed := strings.Trim(mount, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Lookup walks the trie consuming path segments greedily and returns the
// Provider registered at the deepest matching node along with the mount
// prefix that matched. A miss is not an error: ok is false and the
// caller is expected to surface "no origin for this path".
func (r *Router) Lookup(reqPath string) (provider *Provider, mount string, ok bool) {
	segs := strings.Split(strings.Trim(reqPath, "/"), "/")
	cur := r.root
	matched := make([]string, 0, len(segs))
	for _, s := range segs {
		next, exists := cur.children[s]
		if !exists {
			break
		}
		cur = next
		matched = append(matched, s)
		if cur.provider != nil {
			provider, mount, ok = cur.provider, "/"+strings.Join(matched, "/"), true
		}
	}
	return provider, mount, ok
}
