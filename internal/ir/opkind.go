package ir

import (
	"sync"

	"fortio.org/safecast"
	"github.com/pkg/errors"

	"github.com/born-ml/irgraph/internal/hashing"
)

// Symbol is the interned id of an operator name. Zero is the empty name.
type Symbol uint32

// NoSymbol is the id of the empty name.
const NoSymbol Symbol = 0

type symbolEntry struct {
	name string
	hash hashing.Hash
}

// symbolTable interns operator names for the lifetime of the process.
type symbolTable struct {
	mu    sync.RWMutex
	byID  []symbolEntry
	index map[string]Symbol
}

var symbols = &symbolTable{
	byID:  []symbolEntry{{name: "", hash: hashing.String("")}},
	index: map[string]Symbol{"": NoSymbol},
}

func (t *symbolTable) intern(name string) Symbol {
	t.mu.RLock()
	id, ok := t.index[name]
	t.mu.RUnlock()
	if ok {
		return id
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.index[name]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(t.byID))
	if err != nil {
		panic(errors.Wrap(err, "ir: operator symbol table overflow"))
	}
	// Own copy so the table does not pin the caller's buffer.
	cpy := string([]byte(name))
	t.byID = append(t.byID, symbolEntry{name: cpy, hash: hashing.String(cpy)})
	t.index[cpy] = Symbol(n)
	return Symbol(n)
}

func (t *symbolTable) lookup(id Symbol) symbolEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.byID) {
		panic(errors.Errorf("ir: invalid operator symbol %d", id))
	}
	return t.byID[id]
}

// OpKind identifies an operator by its interned, qualified name
// (e.g. "aten::add" or "xla::device_data").
//
// OpKinds compare equal iff they were obtained for the same name. The zero
// OpKind is the empty name.
type OpKind struct {
	sym Symbol
}

// GetOpKind returns the OpKind for name, interning it on first use.
func GetOpKind(name string) OpKind {
	return OpKind{sym: symbols.intern(name)}
}

// Symbol returns the interned id.
func (k OpKind) Symbol() Symbol {
	return k.sym
}

// Name returns the qualified operator name.
func (k OpKind) Name() string {
	return symbols.lookup(k.sym).name
}

// Hash returns the hash of the qualified name. It does not depend on
// interning order, so it is stable across processes.
func (k OpKind) Hash() hashing.Hash {
	return symbols.lookup(k.sym).hash
}

// Less orders OpKinds by interned id.
func (k OpKind) Less(other OpKind) bool {
	return k.sym < other.sym
}

func (k OpKind) String() string {
	return k.Name()
}
