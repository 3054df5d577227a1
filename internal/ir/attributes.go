package ir

import (
	"maps"
	"strconv"

	"github.com/pkg/errors"
)

// FrontendAttributes is a set of string annotations copied onto every node
// built while they are set. Backends read them as hints. An empty value is
// never stored: setting a key to "" removes it.
//
// The zero value is an empty set ready for use.
type FrontendAttributes struct {
	attrs map[string]string
}

// Get returns the value for key.
func (a *FrontendAttributes) Get(key string) (string, bool) {
	v, ok := a.attrs[key]
	return v, ok
}

// Len returns the number of attributes.
func (a *FrontendAttributes) Len() int {
	return len(a.attrs)
}

// Snapshot returns a copy of the attributes.
func (a *FrontendAttributes) Snapshot() map[string]string {
	if len(a.attrs) == 0 {
		return map[string]string{}
	}
	return maps.Clone(a.attrs)
}

// Add sets key to value unless key is already present, and reports whether
// it was set. An empty value removes the key instead.
func (a *FrontendAttributes) Add(key, value string) bool {
	if value == "" {
		a.Remove(key)
		return false
	}
	if _, ok := a.attrs[key]; ok {
		return false
	}
	a.set(key, value)
	return true
}

// Remove deletes key.
func (a *FrontendAttributes) Remove(key string) {
	delete(a.attrs, key)
}

func (a *FrontendAttributes) set(key, value string) {
	if a.attrs == nil {
		a.attrs = make(map[string]string)
	}
	a.attrs[key] = value
}

// Push sets key to value until the returned pusher is popped, then restores
// whatever the key held before. An empty value hides the key for the
// duration. With prefixDepth the stored key becomes "<n>.<key>", where n is
// the number of attributes set at push time.
func (a *FrontendAttributes) Push(key, value string, prefixDepth bool) *FrontendAttributePusher {
	if prefixDepth {
		key = strconv.Itoa(len(a.attrs)) + "." + key
	}
	p := &FrontendAttributePusher{attrs: a, key: key}
	if prev, ok := a.attrs[key]; ok {
		p.previous = prev
	}
	if value == "" {
		delete(a.attrs, key)
	} else {
		a.set(key, value)
	}
	return p
}

// FrontendAttributePusher restores one attribute when popped.
type FrontendAttributePusher struct {
	attrs    *FrontendAttributes
	key      string
	previous string // "" when the key was absent
	popped   bool
}

// Key returns the key as stored, including any depth prefix.
func (p *FrontendAttributePusher) Key() string {
	return p.key
}

// Pop restores the value the key had before the push, or removes it if it
// had none. Anything done to the key in between, removal included, is
// overwritten. Panics if called twice.
func (p *FrontendAttributePusher) Pop() {
	if p.popped {
		panic(errors.Errorf("ir.FrontendAttributePusher: attribute %q popped twice", p.key))
	}
	p.popped = true
	if p.previous == "" {
		delete(p.attrs.attrs, p.key)
		return
	}
	p.attrs.set(p.key, p.previous)
}
