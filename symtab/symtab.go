// Package symtab implements evoscript's scoped symbol table: a mapping from
// scope id to an ordered list of symbol entries, where list position is the
// stable slot index encoded into PUSHG/POPG/PUSHL/POPL immediates.
//
// Grounded on esc/codegen.py's CodeGenerator._insert_symbol/_find_symbol/
// _open_scope/_close_scope (original_source/), reworked into a small Go
// type the way the teacher keeps its Compiler's locals as a plain slice
// (rami3l/golox vm/compiler.go's Compiler.locals).
package symtab

import (
	"github.com/josharian/intern"

	"github.com/evoscript-lang/evoscript/debug"
)

// MaxLocals bounds how many local slots a single scope may hold before the
// next procedure scope id is chosen; procedure scopes are spaced
// MaxLocals+1 apart so each procedure's locals occupy a disjoint id space.
const MaxLocals = 99

// ProcScopeStep is the spacing between successive procedure-local scope ids
// (100, 200, 300, ...).
const ProcScopeStep = MaxLocals + 1

// Global is the scope id of the top-level (module) scope.
const Global = 0

// Kind distinguishes the two symbol entry variants.
type Kind int

const (
	VariableKind Kind = iota
	ProcedureKind
)

// Entry is a tagged sum of Variable and Procedure symbol data. Exactly one
// of the Kind-specific fields is meaningful, selected by Kind.
type Entry struct {
	Kind Kind
	Name string

	// Variable fields.
	IsConst bool
	// ValueType records the emitter's inferred comptime type of the value a
	// Variable was declared with (emitter-defined: 0 unknown, 1 number,
	// 2 string), consulted to choose ADD vs CONCAT for `+`. Later
	// reassignments do not update it.
	ValueType int

	// Procedure fields.
	Argc int
	Addr int // byte offset of the first instruction after the guard JMP
}

// Table is the scope-id -> ordered-symbol-list mapping described in the
// spec's data model. The index of an Entry within its scope's slice is its
// stable slot number.
type Table struct {
	scopes     map[int][]Entry
	scope      int
	nextProc   int
	external   map[string]bool
	MaxScope   int
	MaxSymbols int
}

func New() *Table {
	return &Table{
		scopes:   map[int][]Entry{Global: nil},
		nextProc: ProcScopeStep,
		external: map[string]bool{},
	}
}

// Scope returns the current scope id.
func (t *Table) Scope() int { return t.scope }

// OpenScope opens a nested block scope. Opening a scope below another
// non-Global scope copies the parent scope's entries into the child so
// enclosing names stay visible while still allowing shadowing by append
// order; Global's entries are not copied, since Find falls back to Global.
func (t *Table) OpenScope() {
	if t.scope > 0 {
		t.scopes[t.scope+1] = append([]Entry(nil), t.scopes[t.scope]...)
	}
	t.scope++
	if t.scope > t.MaxScope {
		t.MaxScope = t.scope
	}
}

// CloseScope closes the current block scope, clamping at Global.
func (t *Table) CloseScope() {
	if t.scope > 0 {
		delete(t.scopes, t.scope)
		t.scope--
	}
}

// OpenProcScope allocates a fresh disjoint scope id for a procedure body and
// returns it; the caller is responsible for switching Scope to it (via
// EnterScope) for the duration of the procedure and restoring it after.
func (t *Table) OpenProcScope() int {
	id := t.nextProc
	t.nextProc += ProcScopeStep
	return id
}

// EnterScope forcibly switches the current scope id, used by the emitter to
// move into/out of a procedure-local scope (which is not a nested block of
// the caller's scope).
func (t *Table) EnterScope(id int) (prev int) {
	prev = t.scope
	t.scope = id
	if _, ok := t.scopes[id]; !ok {
		t.scopes[id] = nil
	}
	return
}

// Insert appends entry to scope's symbol list and returns its slot index.
// Names are interned: procedure and variable identifiers recur across
// scopes (every call site, every reassignment), so deduplicating their
// backing storage is worth the lookup.
func (t *Table) Insert(scope int, entry Entry) (slot int) {
	entry.Name = intern.String(entry.Name)
	t.scopes[scope] = append(t.scopes[scope], entry)
	slot = len(t.scopes[scope]) - 1
	debug.Assertf(scope == Global || slot <= MaxLocals, "scope %d slot %d exceeds MaxLocals %d", scope, slot, MaxLocals)
	if n := t.countSymbols(); n > t.MaxSymbols {
		t.MaxSymbols = n
	}
	return
}

func (t *Table) countSymbols() (n int) {
	for _, list := range t.scopes {
		n += len(list)
	}
	return
}

// Find looks up name first in scope, then falls back to Global. It returns
// the entry, its slot, and the scope it was actually found in.
func (t *Table) Find(name string, scope int) (entry Entry, slot int, foundScope int, ok bool) {
	if e, i, found := findIn(t.scopes[scope], name); found {
		return e, i, scope, true
	}
	if scope != Global {
		if e, i, found := findIn(t.scopes[Global], name); found {
			return e, i, Global, true
		}
	}
	return Entry{}, 0, 0, false
}

// Exists reports whether name resolves in scope (or Global) or is a
// registered external symbol.
func (t *Table) Exists(name string, scope int) bool {
	if _, _, _, ok := t.Find(name, scope); ok {
		return true
	}
	return t.external[name]
}

func findIn(list []Entry, name string) (Entry, int, bool) {
	for i, e := range list {
		if e.Name == name {
			return e, i, true
		}
	}
	return Entry{}, 0, false
}

// DeclareExternal registers name as resolvable via an `extern func`
// declaration rather than a compiled Procedure symbol.
func (t *Table) DeclareExternal(name string) { t.external[name] = true }

// IsExternal reports whether name was declared via `extern func`.
func (t *Table) IsExternal(name string) bool { return t.external[name] }
