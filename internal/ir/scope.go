package ir

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type scopeEntry struct {
	name        string
	savedNextID int
}

// ScopeStack is a stack of nested, auto-numbered naming scopes.
//
// Each push appends "<name>.<id>", where id counts pushes under the current
// parent: siblings get 1, 2, 3... and a freshly pushed scope starts its
// children at 1 again. The zero value is an empty stack ready for use.
type ScopeStack struct {
	entries []scopeEntry
	nextID  int
}

func (s *ScopeStack) id() int {
	if s.nextID == 0 {
		return 1
	}
	return s.nextID
}

// Push opens a scope named name.
func (s *ScopeStack) Push(name string) {
	id := s.id()
	s.entries = append(s.entries, scopeEntry{
		name:        name + "." + strconv.Itoa(id),
		savedNextID: id + 1,
	})
	s.nextID = 1
}

// Pop closes the innermost scope. Panics if no scope is open.
func (s *ScopeStack) Pop() {
	if len(s.entries) == 0 {
		panic(errors.New("ir.PopScope: scope stack is empty"))
	}
	s.nextID = s.entries[len(s.entries)-1].savedNextID
	s.entries = s.entries[:len(s.entries)-1]
}

// Reset restarts numbering. Panics if a scope is still open.
func (s *ScopeStack) Reset() {
	if len(s.entries) != 0 {
		panic(errors.Errorf("ir.ResetScopes: %d scopes still open", len(s.entries)))
	}
	s.nextID = 1
}

// Depth returns the number of open scopes. Panics if no scope is open.
func (s *ScopeStack) Depth() int {
	if len(s.entries) == 0 {
		panic(errors.New("ir.ScopeDepth: scope stack is empty"))
	}
	return len(s.entries)
}

// Len returns the number of open scopes, zero included.
func (s *ScopeStack) Len() int {
	return len(s.entries)
}

// Current renders the open scopes joined by "/", or "" when none is open.
func (s *ScopeStack) Current() string {
	var sb strings.Builder
	for i, e := range s.entries {
		if i > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(e.name)
	}
	return sb.String()
}
